package azuread

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the Azure AD v1 access token claims the API relies on.
type Claims struct {
	jwt.RegisteredClaims
	Groups     []string `json:"groups,omitempty"`
	IPAddress  string   `json:"ipaddr,omitempty"`
	Name       string   `json:"name,omitempty"`
	ObjectID   string   `json:"oid,omitempty"`
	TenantID   string   `json:"tid,omitempty"`
	UniqueName string   `json:"unique_name,omitempty"`
	UPN        string   `json:"upn,omitempty"`
}

// HasGroup reports whether groupID is among the token's group memberships.
func (c *Claims) HasGroup(groupID string) bool {
	if groupID == "" {
		return false
	}
	for _, g := range c.Groups {
		if g == groupID {
			return true
		}
	}
	return false
}

// EmployeeID is the object id with its separators removed.
func (c *Claims) EmployeeID() string {
	return strings.ReplaceAll(c.ObjectID, "-", "")
}

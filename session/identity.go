package session

import (
	"time"

	"github.com/upb/estimate-api/azuread"
)

// Identity is the verified caller cached in the session between requests.
type Identity struct {
	EmployeeID string          `json:"employee_id"`
	ExpiresAt  time.Time       `json:"expires_at"`
	IsAdmin    bool            `json:"is_admin"`
	Name       string          `json:"name"`
	Claims     *azuread.Claims `json:"claims,omitempty"`
	UPN        string          `json:"upn"`
}

// NewIdentity derives an identity from freshly verified claims.
func NewIdentity(claims *azuread.Claims, adminGroupID string) *Identity {
	ident := &Identity{
		EmployeeID: claims.EmployeeID(),
		IsAdmin:    claims.HasGroup(adminGroupID),
		Name:       claims.Name,
		Claims:     claims,
		UPN:        claims.UniqueName,
	}
	if ident.UPN == "" {
		ident.UPN = claims.UPN
	}
	if claims.ExpiresAt != nil {
		ident.ExpiresAt = claims.ExpiresAt.Time
	}
	return ident
}

// IsActive reports whether the identity is complete and not yet expired.
func (i *Identity) IsActive(now time.Time) bool {
	if i == nil || i.Claims == nil {
		return false
	}
	if i.UPN == "" || i.EmployeeID == "" || i.ExpiresAt.IsZero() {
		return false
	}
	return i.ExpiresAt.After(now)
}

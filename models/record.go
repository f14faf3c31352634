package models

// Record is one result row keyed by column alias, serialized as a JSON object.
type Record map[string]interface{}

// Keys under which related lists are attached to a parent record
const (
	KeyJobs      = "jobs"
	KeyWorkItems = "workItems"
	KeyPayments  = "payments"
	KeyInvoices  = "invoices"
)

// With attaches a related list to the record and returns it.
func (r Record) With(key string, related []Record) Record {
	if related == nil {
		related = []Record{}
	}
	r[key] = related
	return r
}

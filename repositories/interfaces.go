package repositories

import (
	"context"

	"github.com/upb/estimate-api/models"
	"github.com/upb/estimate-api/session"
)

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new read-only transaction
	Begin(ctx context.Context) (Transaction, error)
}

// Transaction represents a database transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns the transaction context
	Context() context.Context
}

// EstimateRepository runs the fixed catalog of estimate report queries.
// List methods never return a nil slice; a limit of zero means no limit.
type EstimateRepository interface {
	// RecentEstimates lists jobs by contract date, newest first
	RecentEstimates(ctx context.Context, limit int) ([]models.Record, error)

	// RecentlyReceived lists jobs by creation date, newest first
	RecentlyReceived(ctx context.Context, limit int) ([]models.Record, error)

	// ActiveContracts lists open contract jobs, oldest first
	ActiveContracts(ctx context.Context, limit int) ([]models.Record, error)

	// Search matches pattern against the field selected by searchType
	Search(ctx context.Context, searchType models.SearchType, pattern string, limit int) ([]models.Record, error)

	// GetCustomer returns the customer or nil if it does not exist
	GetCustomer(ctx context.Context, customerID int64) (models.Record, error)

	// GetCustomerJobs lists the customer's jobs, newest contract first
	GetCustomerJobs(ctx context.Context, customerID int64) ([]models.Record, error)

	// GetJob returns the job or nil if it does not exist
	GetJob(ctx context.Context, jobID int64) (models.Record, error)

	// GetJobWorkItems lists the job's contract line items
	GetJobWorkItems(ctx context.Context, jobID int64) ([]models.Record, error)

	// GetJobPayments lists the job's payments by ascending payment date
	GetJobPayments(ctx context.Context, jobID int64) ([]models.Record, error)

	// GetJobInvoices lists the job's invoice totals by invoice date
	GetJobInvoices(ctx context.Context, jobID int64) ([]models.Record, error)
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Estimates EstimateRepository
	Sessions  session.Store
}

package postgres

import (
	"context"
	"fmt"

	"github.com/upb/estimate-api/models"
	"github.com/upb/estimate-api/repositories"
	"go.uber.org/zap"
)

// contractTotals and paymentTotals aggregate per job; both are joined into
// job result rows and job details.
const (
	contractTotals = `
		LEFT JOIN (
			SELECT job_id, SUM(job_contract_amount) AS total_amount
			FROM job_contracts
			WHERE job_contract_amount IS NOT NULL
			GROUP BY job_id
		) jc ON jc.job_id = w.job_id`

	paymentTotals = `
		LEFT JOIN (
			SELECT job_id, SUM(payment_amount) AS total_payments
			FROM payments
			WHERE payment_amount IS NOT NULL
			GROUP BY job_id
		) p ON p.job_id = w.job_id`
)

const jobResultSelect = `
		SELECT
			c.customer_id          AS "CustomerID",
			w.job_id               AS "JobID",
			c.customer             AS "Customer",
			c.customer_last_name   AS "CustomerLastName",
			c.company_name         AS "CompanyName",
			w.contract_date        AS "ContractDate",
			w.create_date          AS "CreateDate",
			w.job_address          AS "JobAddress",
			jt.job_type_description AS "JobTypeDescription",
			jc.total_amount        AS "TotalAmount",
			p.total_payments       AS "TotalPayments"
		FROM customers c
		LEFT JOIN workorders w ON w.customer_id = c.customer_id
		LEFT JOIN job_types jt ON jt.job_type = w.job_type` + contractTotals + paymentTotals

var (
	recentEstimatesQuery = jobResultSelect + `
		ORDER BY w.contract_date DESC NULLS LAST
		LIMIT $1`

	recentlyReceivedQuery = jobResultSelect + `
		ORDER BY w.create_date DESC NULLS LAST
		LIMIT $1`

	activeContractsQuery = jobResultSelect + `
		WHERE jt.job_type_description = 'Contract'
			AND w.close_date IS NULL
		ORDER BY w.create_date ASC
		LIMIT $1`

	searchQueries = map[models.SearchType]string{
		models.SearchByCustomer: jobResultSelect + `
		WHERE c.customer_last_name IS NOT NULL
			AND LOWER(c.customer_last_name) LIKE $1
		ORDER BY w.contract_date DESC NULLS LAST
		LIMIT $2`,
		models.SearchByCompany: jobResultSelect + `
		WHERE c.company_name IS NOT NULL
			AND LOWER(c.company_name) LIKE $1
		ORDER BY w.contract_date DESC NULLS LAST
		LIMIT $2`,
		models.SearchByAddress: jobResultSelect + `
		WHERE w.job_address IS NOT NULL
			AND LOWER(w.job_address) LIKE $1
		ORDER BY w.contract_date DESC NULLS LAST
		LIMIT $2`,
	}

	customerQuery = `
		SELECT
			customer_id                  AS "CustomerID",
			customer                     AS "Customer",
			customer_last_name           AS "CustomerLastName",
			company_name                 AS "CompanyName",
			customer_first_name2         AS "CustomerFirstName2",
			customer_last_name2          AS "CustomerLastName2",
			billing_contact_first_name   AS "BillingContactFirstName",
			billing_contact_last_name    AS "BillingContactLastName",
			billing_contact_company_name AS "BillingContactCompanyName",
			billing_address              AS "BillingAddress",
			billing_city                 AS "BillingCity",
			billing_state                AS "BillingState",
			billing_zip                  AS "BillingZip",
			billing_phone1_type          AS "BillingPhone1Type",
			billing_phone1               AS "BillingPhone1",
			billing_ext1                 AS "BillingExt1",
			billing_phone2_type          AS "BillingPhone2Type",
			billing_phone2               AS "BillingPhone2",
			billing_ext2                 AS "BillingExt2",
			billing_phone3_type          AS "BillingPhone3Type",
			billing_phone3               AS "BillingPhone3",
			billing_ext3                 AS "BillingExt3",
			billing_phone4_type          AS "BillingPhone4Type",
			billing_fax                  AS "BillingFax",
			billing_ext4                 AS "BillingExt4",
			email_one                    AS "EmailOne",
			email_two                    AS "EmailTwo"
		FROM customers
		WHERE customer_id = $1`

	customerJobsQuery = jobResultSelect + `
		WHERE w.customer_id = $1
		ORDER BY w.contract_date DESC NULLS LAST`

	jobQuery = `
		SELECT
			w.job_id                 AS "JobID",
			w.customer_id            AS "CustomerID",
			jt.job_type_description  AS "JobTypeDescription",
			w.job_customer           AS "JobCustomer",
			w.job_contact            AS "JobContact",
			TRIM(w.job_second_contact) AS "JobContact2",
			w.job_address            AS "JobAddress",
			w.job_city               AS "JobCity",
			w.job_st                 AS "JobSt",
			w.job_zip                AS "JobZip",
			w.job_phone1_type        AS "JobPhone1Type",
			w.job_contact_phone1     AS "JobContactPhone1",
			w.job_phone2_type        AS "JobPhone2Type",
			w.job_contact_phone2     AS "JobContactPhone2",
			w.job_phone3_type        AS "JobPhone3Type",
			w.job_contact_phone3     AS "JobContactPhone3",
			w.job_phone4_type        AS "JobPhone4Type",
			w.job_contact_phone4     AS "JobContactPhone4",
			w.contract_date          AS "ContractDate",
			w.create_date            AS "CreateDate",
			w.job_start              AS "JobStart",
			w.close_date             AS "CloseDate",
			jc.total_amount          AS "TotalAmount",
			p.total_payments         AS "TotalPayments"
		FROM workorders w
		LEFT JOIN job_types jt ON jt.job_type = w.job_type` + contractTotals + paymentTotals + `
		WHERE w.job_id = $1`

	jobWorkItemsQuery = `
		SELECT
			work_description_type    AS "WorkDescriptionType",
			job_contract_description AS "JobContractDescription",
			job_contract_amount      AS "JobContractAmount"
		FROM job_contracts
		WHERE job_id = $1`

	jobPaymentsQuery = `
		SELECT
			payment_date   AS "PaymentDate",
			payment_amount AS "PaymentAmount",
			payment_method AS "PaymentMethod"
		FROM payments
		WHERE job_id = $1
		ORDER BY payment_date ASC`

	jobInvoicesQuery = `
		SELECT
			i.invoice_date              AS "InvoiceDate",
			SUM(d.job_contract_amount)  AS "InvoiceAmount"
		FROM invoices i
		INNER JOIN invoice_details d ON d.invoice_number = i.invoice_number
		WHERE i.job_id = $1
		GROUP BY i.invoice_date, i.invoice_number
		ORDER BY i.invoice_date`
)

// EstimateRepository implements the repositories.EstimateRepository interface
type EstimateRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewEstimateRepository creates a new estimate repository
func NewEstimateRepository(db *DB, logger *zap.Logger) repositories.EstimateRepository {
	return &EstimateRepository{
		db:     db,
		logger: logger,
	}
}

// RecentEstimates lists jobs by contract date
func (r *EstimateRepository) RecentEstimates(ctx context.Context, limit int) ([]models.Record, error) {
	return r.list(ctx, "recent estimates", recentEstimatesQuery, limitArg(limit))
}

// RecentlyReceived lists jobs by creation date
func (r *EstimateRepository) RecentlyReceived(ctx context.Context, limit int) ([]models.Record, error) {
	return r.list(ctx, "recently received jobs", recentlyReceivedQuery, limitArg(limit))
}

// ActiveContracts lists open contract jobs
func (r *EstimateRepository) ActiveContracts(ctx context.Context, limit int) ([]models.Record, error) {
	return r.list(ctx, "active contracts", activeContractsQuery, limitArg(limit))
}

// Search matches the bound pattern against the field for searchType.
// An unsupported type yields an empty list without querying.
func (r *EstimateRepository) Search(ctx context.Context, searchType models.SearchType, pattern string, limit int) ([]models.Record, error) {
	query, ok := searchQueries[searchType]
	if !ok {
		return []models.Record{}, nil
	}
	return r.list(ctx, "search results", query, pattern, limitArg(limit))
}

// GetCustomer retrieves a customer by ID
func (r *EstimateRepository) GetCustomer(ctx context.Context, customerID int64) (models.Record, error) {
	return r.one(ctx, "customer", customerQuery, customerID)
}

// GetCustomerJobs retrieves all jobs for a customer
func (r *EstimateRepository) GetCustomerJobs(ctx context.Context, customerID int64) ([]models.Record, error) {
	return r.list(ctx, "customer jobs", customerJobsQuery, customerID)
}

// GetJob retrieves a job by ID
func (r *EstimateRepository) GetJob(ctx context.Context, jobID int64) (models.Record, error) {
	return r.one(ctx, "job", jobQuery, jobID)
}

// GetJobWorkItems retrieves a job's contract line items
func (r *EstimateRepository) GetJobWorkItems(ctx context.Context, jobID int64) ([]models.Record, error) {
	return r.list(ctx, "work items", jobWorkItemsQuery, jobID)
}

// GetJobPayments retrieves a job's payments
func (r *EstimateRepository) GetJobPayments(ctx context.Context, jobID int64) ([]models.Record, error) {
	return r.list(ctx, "payments", jobPaymentsQuery, jobID)
}

// GetJobInvoices retrieves a job's invoice totals
func (r *EstimateRepository) GetJobInvoices(ctx context.Context, jobID int64) ([]models.Record, error) {
	return r.list(ctx, "invoices", jobInvoicesQuery, jobID)
}

func (r *EstimateRepository) list(ctx context.Context, what, query string, args ...interface{}) ([]models.Record, error) {
	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", what, err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", what, err)
	}

	r.logger.Debug("query completed", zap.String("query", what), zap.Int("rows", len(records)))
	return records, nil
}

// one returns the first row of the result, or nil when there is none.
func (r *EstimateRepository) one(ctx context.Context, what, query string, args ...interface{}) (models.Record, error) {
	records, err := r.list(ctx, what, query, args...)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

// limitArg binds NULL for "no limit"; Postgres treats LIMIT NULL as LIMIT ALL.
func limitArg(limit int) interface{} {
	if limit <= 0 {
		return nil
	}
	return limit
}

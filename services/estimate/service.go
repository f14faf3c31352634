package estimate

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/upb/estimate-api/models"
	"github.com/upb/estimate-api/repositories"
	"github.com/upb/estimate-api/services"
	"github.com/upb/estimate-api/utils"
	"go.uber.org/zap"
)

var errIDOutOfRange = errors.New("identifier out of range")

// Config tunes the report queries
type Config struct {
	// ResultLimit caps the recent lists and the customer and company searches.
	ResultLimit int
}

// Service runs the estimate report catalog
type Service struct {
	repo   repositories.EstimateRepository
	txMgr  repositories.TransactionManager
	cfg    Config
	logger *zap.Logger
}

// NewService creates a new estimate Service. txMgr may be nil, in which
// case composite reads run without a shared snapshot.
func NewService(repo repositories.EstimateRepository, txMgr repositories.TransactionManager, cfg Config, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		txMgr:  txMgr,
		cfg:    cfg,
		logger: logger,
	}
}

// RecentEstimates lists the latest jobs by contract date
func (s *Service) RecentEstimates(ctx context.Context) ([]models.Record, error) {
	records, err := s.repo.RecentEstimates(ctx, s.cfg.ResultLimit)
	if err != nil {
		return nil, services.WrapInternal("failed to list recent estimates", err)
	}
	return records, nil
}

// RecentlyReceived lists the latest jobs by creation date
func (s *Service) RecentlyReceived(ctx context.Context) ([]models.Record, error) {
	records, err := s.repo.RecentlyReceived(ctx, s.cfg.ResultLimit)
	if err != nil {
		return nil, services.WrapInternal("failed to list recently received jobs", err)
	}
	return records, nil
}

// ActiveContracts lists every open contract, oldest first
func (s *Service) ActiveContracts(ctx context.Context) ([]models.Record, error) {
	records, err := s.repo.ActiveContracts(ctx, 0)
	if err != nil {
		return nil, services.WrapInternal("failed to list active contracts", err)
	}
	return records, nil
}

// Search dispatches on searchType. Unknown types return an empty list
// without touching the database.
func (s *Service) Search(ctx context.Context, query, searchType string) ([]models.Record, error) {
	st := models.SearchType(strings.ToLower(strings.TrimSpace(searchType)))
	if !st.IsValid() {
		s.logger.Debug("ignoring unsupported search type", zap.String("search_type", searchType))
		return []models.Record{}, nil
	}

	// address matches are not capped
	limit := s.cfg.ResultLimit
	if st == models.SearchByAddress {
		limit = 0
	}

	pattern := st.Pattern(query)
	records, err := s.repo.Search(ctx, st, pattern, limit)
	if err != nil {
		return nil, services.WrapInternal("failed to search jobs", err)
	}

	s.logger.Debug("search completed",
		zap.String("search_type", searchType),
		zap.String("pattern", pattern),
		zap.Int("results", len(records)))
	return records, nil
}

// Customer returns the customer record with its jobs attached under "jobs".
func (s *Service) Customer(ctx context.Context, customerID string) (models.Record, error) {
	id, err := parseID(customerID, "customer_id")
	if errors.Is(err, errIDOutOfRange) {
		return nil, services.ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}

	return s.inSnapshot(ctx, func(ctx context.Context) (models.Record, error) {
		customer, err := s.repo.GetCustomer(ctx, id)
		if err != nil {
			return nil, services.WrapInternal("failed to load customer", err)
		}
		if customer == nil {
			return nil, services.ErrCustomerNotFound.WithDetail("customer_id", id)
		}

		jobs, err := s.repo.GetCustomerJobs(ctx, id)
		if err != nil {
			return nil, services.WrapInternal("failed to load customer jobs", err)
		}
		return customer.With(models.KeyJobs, jobs), nil
	})
}

// Job returns the job record with work items, payments and invoices attached.
func (s *Service) Job(ctx context.Context, jobID string) (models.Record, error) {
	id, err := parseID(jobID, "job_id")
	if errors.Is(err, errIDOutOfRange) {
		return nil, services.ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}

	return s.inSnapshot(ctx, func(ctx context.Context) (models.Record, error) {
		job, err := s.repo.GetJob(ctx, id)
		if err != nil {
			return nil, services.WrapInternal("failed to load job", err)
		}
		if job == nil {
			return nil, services.ErrJobNotFound.WithDetail("job_id", id)
		}

		workItems, err := s.repo.GetJobWorkItems(ctx, id)
		if err != nil {
			return nil, services.WrapInternal("failed to load work items", err)
		}
		payments, err := s.repo.GetJobPayments(ctx, id)
		if err != nil {
			return nil, services.WrapInternal("failed to load payments", err)
		}
		invoices, err := s.repo.GetJobInvoices(ctx, id)
		if err != nil {
			return nil, services.WrapInternal("failed to load invoices", err)
		}

		return job.
			With(models.KeyWorkItems, workItems).
			With(models.KeyPayments, payments).
			With(models.KeyInvoices, invoices), nil
	})
}

func (s *Service) inSnapshot(ctx context.Context, fn func(ctx context.Context) (models.Record, error)) (models.Record, error) {
	if s.txMgr == nil {
		return fn(ctx)
	}
	return services.WithTransactionResult(ctx, s.txMgr, func(ctx context.Context, _ repositories.Transaction) (models.Record, error) {
		return fn(ctx)
	})
}

// parseID validates an all-digit path identifier.
func parseID(raw, param string) (int64, error) {
	if err := utils.ValidateDigits(raw, param); err != nil {
		return 0, services.ErrInvalidIdentifier.WithDetail("param", param).WithDetail("value", raw)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errIDOutOfRange
	}
	return id, nil
}

package services

import (
	"context"
	"fmt"

	"finanzas/internal/core"
	"finanzas/internal/log"
	"finanzas/internal/storage"

	"golang.org/x/sync/errgroup"
)

const recentMovements = 5

// SummaryQuery scopes a summary to one account and/or a date range.
type SummaryQuery struct {
	AccountID int64
	Range     core.DateRange
}

type AccountBalance struct {
	Account core.Account `json:"cuenta"`
	From    core.Date    `json:"desde"`
	To      core.Date    `json:"hasta"`
	Balance core.Money   `json:"saldo"`
}

type CategoryBalance struct {
	Category core.Category `json:"categoria"`
	From     core.Date     `json:"desde"`
	To       core.Date     `json:"hasta"`
	Net      core.Money    `json:"balance"`
}

// Dashboard is the landing view: global summary, budget health and the
// latest movements.
type Dashboard struct {
	Summary core.Summary        `json:"resumen"`
	Budgets []core.BudgetStatus `json:"presupuestos"`
	Recent  []core.Movement     `json:"ultimosMovimientos"`
}

// ReportService computes summaries and balances from stored movements.
type ReportService struct {
	storage *storage.SQLiteRepository
	logger  *log.Logger
}

func NewReportService(storage *storage.SQLiteRepository, logger *log.Logger) *ReportService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &ReportService{storage: storage, logger: logger.WithComponent(log.ComponentMovement)}
}

// Summary uses the account's opening balance when q names one, otherwise the
// sum of every account's opening balance.
func (s *ReportService) Summary(ctx context.Context, q SummaryQuery) (core.Summary, error) {
	if err := q.Range.Validate(); err != nil {
		return core.Summary{}, err
	}

	var opening core.Money
	if q.AccountID != 0 {
		lookup, err := s.storage.GetAccount(ctx, q.AccountID)
		if err != nil {
			return core.Summary{}, err
		}
		acc, ok := lookup.Get()
		if !ok {
			return core.Summary{}, fmt.Errorf("account %d: %w", q.AccountID, storage.ErrNotFound)
		}
		opening = acc.OpeningBalance
	} else {
		total, err := s.storage.TotalOpeningBalance(ctx)
		if err != nil {
			return core.Summary{}, err
		}
		opening = total
	}

	movs, err := s.storage.ListMovements(ctx, storage.MovementFilter{AccountID: q.AccountID, Range: q.Range})
	if err != nil {
		return core.Summary{}, err
	}
	return core.ComputeSummary(movs, opening), nil
}

func (s *ReportService) AccountBalance(ctx context.Context, id int64, r core.DateRange) (core.Lookup[AccountBalance], error) {
	if err := r.Validate(); err != nil {
		return core.NotFound[AccountBalance](), err
	}
	lookup, err := s.storage.GetAccount(ctx, id)
	if err != nil {
		return core.NotFound[AccountBalance](), err
	}
	acc, ok := lookup.Get()
	if !ok {
		return core.NotFound[AccountBalance](), nil
	}
	movs, err := s.storage.ListMovements(ctx, storage.MovementFilter{AccountID: id, Range: r})
	if err != nil {
		return core.NotFound[AccountBalance](), err
	}
	return core.Found(AccountBalance{
		Account: acc,
		From:    r.From,
		To:      r.To,
		Balance: core.AccountBalance(acc, movs, r),
	}), nil
}

func (s *ReportService) CategoryBalance(ctx context.Context, id int64, r core.DateRange) (core.Lookup[CategoryBalance], error) {
	if err := r.Validate(); err != nil {
		return core.NotFound[CategoryBalance](), err
	}
	lookup, err := s.storage.GetCategory(ctx, id)
	if err != nil {
		return core.NotFound[CategoryBalance](), err
	}
	cat, ok := lookup.Get()
	if !ok {
		return core.NotFound[CategoryBalance](), nil
	}
	movs, err := s.storage.ListMovements(ctx, storage.MovementFilter{CategoryID: id, Range: r})
	if err != nil {
		return core.NotFound[CategoryBalance](), err
	}
	return core.Found(CategoryBalance{
		Category: cat,
		From:     r.From,
		To:       r.To,
		Net:      core.CategoryNet(id, movs, r),
	}), nil
}

func (s *ReportService) BudgetStatus(ctx context.Context, id int64) (core.Lookup[core.BudgetStatus], error) {
	lookup, err := s.storage.GetBudget(ctx, id)
	if err != nil {
		return core.NotFound[core.BudgetStatus](), err
	}
	b, ok := lookup.Get()
	if !ok {
		return core.NotFound[core.BudgetStatus](), nil
	}
	movs, err := s.storage.ListMovements(ctx, storage.MovementFilter{
		Kind:       core.Expense,
		CategoryID: b.CategoryID,
		Range:      core.DateRange{From: b.StartDate, To: b.EndDate},
	})
	if err != nil {
		return core.NotFound[core.BudgetStatus](), err
	}
	return core.Found(core.EvaluateBudget(b, movs)), nil
}

// Dashboard loads its three parts concurrently.
func (s *ReportService) Dashboard(ctx context.Context) (Dashboard, error) {
	var d Dashboard
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sum, err := s.Summary(gctx, SummaryQuery{})
		if err != nil {
			return fmt.Errorf("summary: %w", err)
		}
		d.Summary = sum
		return nil
	})

	g.Go(func() error {
		budgets, err := s.storage.ListBudgets(gctx)
		if err != nil {
			return fmt.Errorf("budgets: %w", err)
		}
		expenses, err := s.storage.ListMovements(gctx, storage.MovementFilter{Kind: core.Expense})
		if err != nil {
			return fmt.Errorf("budget movements: %w", err)
		}
		statuses := make([]core.BudgetStatus, 0, len(budgets))
		for _, b := range budgets {
			statuses = append(statuses, core.EvaluateBudget(b, expenses))
		}
		d.Budgets = statuses
		return nil
	})

	g.Go(func() error {
		recent, err := s.storage.ListMovements(gctx, storage.MovementFilter{Limit: recentMovements})
		if err != nil {
			return fmt.Errorf("recent movements: %w", err)
		}
		d.Recent = recent
		return nil
	})

	if err := g.Wait(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to load dashboard", "error", err)
		return Dashboard{}, err
	}
	return d, nil
}

package services

import (
	"context"

	"finanzas/internal/core"
	"finanzas/internal/log"
	"finanzas/internal/storage"
)

// CatalogService manages categories, accounts and budgets.
type CatalogService struct {
	storage *storage.SQLiteRepository
	logger  *log.Logger
}

func NewCatalogService(storage *storage.SQLiteRepository, logger *log.Logger) *CatalogService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &CatalogService{storage: storage, logger: logger.WithComponent(log.ComponentCatalog)}
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]core.Category, error) {
	return s.storage.ListCategories(ctx)
}

func (s *CatalogService) GetCategory(ctx context.Context, id int64) (core.Lookup[core.Category], error) {
	return s.storage.GetCategory(ctx, id)
}

func (s *CatalogService) CreateCategory(ctx context.Context, form core.CategoryForm) (core.Category, error) {
	c, err := form.Category()
	if err != nil {
		return core.Category{}, err
	}
	return s.storage.CreateCategory(ctx, c)
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id int64, form core.CategoryForm) (core.Category, error) {
	c, err := form.Category()
	if err != nil {
		return core.Category{}, err
	}
	c.ID = id
	return s.storage.UpdateCategory(ctx, c)
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id int64) error {
	return s.storage.DeleteCategory(ctx, id)
}

func (s *CatalogService) ListAccounts(ctx context.Context) ([]core.Account, error) {
	return s.storage.ListAccounts(ctx)
}

func (s *CatalogService) GetAccount(ctx context.Context, id int64) (core.Lookup[core.Account], error) {
	return s.storage.GetAccount(ctx, id)
}

func (s *CatalogService) CreateAccount(ctx context.Context, form core.AccountForm) (core.Account, error) {
	a, err := form.Account()
	if err != nil {
		return core.Account{}, err
	}
	return s.storage.CreateAccount(ctx, a)
}

func (s *CatalogService) UpdateAccount(ctx context.Context, id int64, form core.AccountForm) (core.Account, error) {
	a, err := form.Account()
	if err != nil {
		return core.Account{}, err
	}
	a.ID = id
	return s.storage.UpdateAccount(ctx, a)
}

func (s *CatalogService) DeleteAccount(ctx context.Context, id int64) error {
	return s.storage.DeleteAccount(ctx, id)
}

func (s *CatalogService) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	return s.storage.ListBudgets(ctx)
}

func (s *CatalogService) GetBudget(ctx context.Context, id int64) (core.Lookup[core.Budget], error) {
	return s.storage.GetBudget(ctx, id)
}

func (s *CatalogService) CreateBudget(ctx context.Context, form core.BudgetForm) (core.Budget, error) {
	b, err := form.Budget()
	if err != nil {
		return core.Budget{}, err
	}
	return s.storage.CreateBudget(ctx, b)
}

func (s *CatalogService) UpdateBudget(ctx context.Context, id int64, form core.BudgetForm) (core.Budget, error) {
	b, err := form.Budget()
	if err != nil {
		return core.Budget{}, err
	}
	b.ID = id
	return s.storage.UpdateBudget(ctx, b)
}

func (s *CatalogService) DeleteBudget(ctx context.Context, id int64) error {
	return s.storage.DeleteBudget(ctx, id)
}

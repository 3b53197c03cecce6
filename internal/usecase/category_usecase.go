package usecase

import (
	"context"

	"github.com/DRSN-tech/catalog-backend/internal/domain"
	"github.com/DRSN-tech/catalog-backend/pkg/e"
	"github.com/DRSN-tech/catalog-backend/pkg/logger"
)

// CategoryUseCase реализует создание и чтение категорий.
type CategoryUseCase struct {
	categoryRepo CategoryRepository
	cacheRepo    CacheRepository
	cacheGuard   *cacheGuard
	logger       logger.Logger
}

func NewCategoryUC(categoryRepo CategoryRepository, cacheRepo CacheRepository, logger logger.Logger) *CategoryUseCase {
	return &CategoryUseCase{
		categoryRepo: categoryRepo,
		cacheRepo:    cacheRepo,
		cacheGuard:   newCacheGuard("categories", cacheRepo.InvalidateCategories, logger),
		logger:       logger,
	}
}

// CreateCategory сохраняет категорию. Имена не обязаны быть уникальными.
func (c *CategoryUseCase) CreateCategory(ctx context.Context, req *CreateCategoryReq) (*domain.Category, error) {
	const op = "create category"

	ctx = context.WithoutCancel(ctx)

	category, err := c.categoryRepo.Create(ctx, domain.NewCategory(req.Name))
	if err != nil {
		return nil, e.Internal(op, err)
	}

	c.cacheGuard.Invalidate(ctx)

	return category, nil
}

// ListCategories возвращает все категории в порядке хранилища.
func (c *CategoryUseCase) ListCategories(ctx context.Context) ([]domain.Category, error) {
	const op = "list categories"

	ctx = context.WithoutCancel(ctx)

	if !c.cacheGuard.Usable(ctx) {
		categories, err := c.categoryRepo.List(ctx)
		if err != nil {
			return nil, e.Internal(op, err)
		}
		return categories, nil
	}

	cached, version, hit := c.cacheRepo.GetCategories(ctx)
	if hit {
		return cached, nil
	}

	categories, err := c.categoryRepo.List(ctx)
	if err != nil {
		return nil, e.Internal(op, err)
	}

	if err := c.cacheRepo.SetCategories(ctx, version, categories); err != nil {
		c.logger.Warnf("Failed to cache categories: %v", err)
	}

	return categories, nil
}

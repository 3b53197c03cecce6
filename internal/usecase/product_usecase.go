package usecase

import (
	"context"

	"github.com/DRSN-tech/catalog-backend/internal/domain"
	"github.com/DRSN-tech/catalog-backend/pkg/e"
	"github.com/DRSN-tech/catalog-backend/pkg/logger"
	"github.com/DRSN-tech/catalog-backend/pkg/tr"
)

// ProductUseCase реализует бизнес-логику управления продуктами.
type ProductUseCase struct {
	productRepo  ProductRepository
	categoryRepo CategoryRepository
	txManager    TxManager
	events       EventRecorder
	cacheRepo    CacheRepository
	cacheGuard   *cacheGuard
	logger       logger.Logger
}

func NewProductUC(
	productRepo ProductRepository,
	categoryRepo CategoryRepository,
	txManager TxManager,
	events EventRecorder,
	cacheRepo CacheRepository,
	logger logger.Logger,
) *ProductUseCase {
	return &ProductUseCase{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		txManager:    txManager,
		events:       events,
		cacheRepo:    cacheRepo,
		cacheGuard:   newCacheGuard("products", cacheRepo.InvalidateProducts, logger),
		logger:       logger,
	}
}

// CreateProduct создаёт продукт в существующей категории. Проверка категории и вставка
// выполняются в одной транзакции; строка категории блокируется FOR SHARE до коммита.
func (p *ProductUseCase) CreateProduct(ctx context.Context, req *CreateProductReq) (*domain.Product, error) {
	const op = "create product"

	ctx = context.WithoutCancel(ctx)

	product, err := tr.InTx(ctx, p.txManager, func(ctx context.Context) (*domain.Product, error) {
		exists, err := p.categoryRepo.Exists(ctx, req.CategoryID, true)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, e.NotFound("category", req.CategoryID)
		}

		product, err := p.productRepo.Create(ctx, domain.NewProduct(
			req.Title, req.Price, req.Description, req.Image, req.CategoryID, req.Rating,
		))
		if err != nil {
			return nil, err
		}

		return product, p.events.Record(ctx, ProductCreated, product)
	})
	if err != nil {
		return nil, e.Internal(op, err)
	}

	p.cacheGuard.Invalidate(ctx)

	return product, nil
}

// ListProducts возвращает все продукты в порядке хранилища.
func (p *ProductUseCase) ListProducts(ctx context.Context) ([]domain.Product, error) {
	const op = "list products"

	ctx = context.WithoutCancel(ctx)

	if !p.cacheGuard.Usable(ctx) {
		products, err := p.productRepo.List(ctx)
		if err != nil {
			return nil, e.Internal(op, err)
		}
		return products, nil
	}

	// версия берётся до чтения из БД: если запись успеет закоммититься раньше SetProducts,
	// версия сменится и устаревший список в кэш не попадёт
	cached, version, hit := p.cacheRepo.GetProducts(ctx)
	if hit {
		return cached, nil
	}

	products, err := p.productRepo.List(ctx)
	if err != nil {
		return nil, e.Internal(op, err)
	}

	if err := p.cacheRepo.SetProducts(ctx, version, products); err != nil {
		p.logger.Warnf("Failed to cache products: %v", err)
	}

	return products, nil
}

// UpdateProduct применяет частичный патч. Пустой патч возвращает текущее состояние без записи.
// categoryId из патча не проверяется на существование.
func (p *ProductUseCase) UpdateProduct(ctx context.Context, id int64, req *UpdateProductReq) (*domain.Product, error) {
	const op = "update product"

	ctx = context.WithoutCancel(ctx)

	product, err := tr.InTx(ctx, p.txManager, func(ctx context.Context) (*domain.Product, error) {
		current, err := p.productRepo.GetByID(ctx, id, true)
		if err != nil {
			return nil, err
		}

		if !req.HasChanges() {
			return current, nil
		}

		product, err := p.productRepo.Update(ctx, id, req)
		if err != nil {
			return nil, err
		}

		return product, p.events.Record(ctx, ProductUpdated, product)
	})
	if err != nil {
		return nil, e.Internal(op, err)
	}

	if req.HasChanges() {
		p.cacheGuard.Invalidate(ctx)
	}

	return product, nil
}

// DeleteProduct удаляет продукт по идентификатору.
func (p *ProductUseCase) DeleteProduct(ctx context.Context, id int64) (*DeleteProductRes, error) {
	const op = "delete product"

	ctx = context.WithoutCancel(ctx)

	err := p.txManager.RunInTx(ctx, func(ctx context.Context) error {
		current, err := p.productRepo.GetByID(ctx, id, true)
		if err != nil {
			return err
		}

		if _, err := p.productRepo.Delete(ctx, id); err != nil {
			return err
		}

		return p.events.Record(ctx, ProductDeleted, current)
	})
	if err != nil {
		return nil, e.Internal(op, err)
	}

	p.cacheGuard.Invalidate(ctx)

	return NewDeleteProductRes(id), nil
}

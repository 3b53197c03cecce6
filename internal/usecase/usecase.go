package usecase

import (
	"context"

	"github.com/DRSN-tech/catalog-backend/internal/domain"
)

type CategoryUC interface {
	CreateCategory(ctx context.Context, req *CreateCategoryReq) (*domain.Category, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
}

type ProductUC interface {
	CreateProduct(ctx context.Context, req *CreateProductReq) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	UpdateProduct(ctx context.Context, id int64, req *UpdateProductReq) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) (*DeleteProductRes, error)
}

package usecase

import (
	"context"

	"github.com/DRSN-tech/catalog-backend/internal/domain"
)

type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) (*domain.Category, error)
	List(ctx context.Context) ([]domain.Category, error)
	// Exists проверяет наличие категории; lock=true удерживает строку до конца транзакции.
	Exists(ctx context.Context, id int64, lock bool) (bool, error)
}

type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) (*domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
	GetByID(ctx context.Context, id int64, forUpdate bool) (*domain.Product, error)
	Update(ctx context.Context, id int64, req *UpdateProductReq) (*domain.Product, error)
	Delete(ctx context.Context, id int64) (int64, error)
}

type OutboxRepository interface {
	Create(ctx context.Context, event *OutboxEvent) (*OutboxEvent, error)
	GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkAsProcessed(ctx context.Context, id int64) error
}

// CacheRepository хранит полные списки продуктов и категорий под счётчиком версий.
// Get возвращает текущую версию и при промахе; Set записывает список, только если версия
// не изменилась с момента Get, поэтому чтение, начатое до записи, не вернёт старый список в кэш.
// Invalidate увеличивает версию. Промах и сбой кэша неотличимы для вызывающего кода: hit=false.
type CacheRepository interface {
	GetProducts(ctx context.Context) (products []domain.Product, version int64, hit bool)
	SetProducts(ctx context.Context, version int64, products []domain.Product) error
	InvalidateProducts(ctx context.Context) error
	GetCategories(ctx context.Context) (categories []domain.Category, version int64, hit bool)
	SetCategories(ctx context.Context, version int64, categories []domain.Category) error
	InvalidateCategories(ctx context.Context) error
}

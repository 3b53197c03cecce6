package converter

import (
	"encoding/json"
	"fmt"

	"github.com/DRSN-tech/catalog-backend/internal/domain"
	"github.com/DRSN-tech/catalog-backend/internal/usecase"
	"github.com/shopspring/decimal"
)

// ProductConverter преобразует сущности Product между domain и моделью PostgreSQL.
type ProductConverter interface {
	ToEntity(model *ProductModel) (*domain.Product, error)
	ToArrEntity(models []ProductModel) ([]domain.Product, error)
	RatingToParam(rating *domain.Rating) (any, error)
}

// CategoryConverter преобразует сущности Category между domain и моделью PostgreSQL.
type CategoryConverter interface {
	ToModel(entity *domain.Category) *CategoryModel
	ToEntity(model *CategoryModel) *domain.Category
	ToArrEntity(models []CategoryModel) []domain.Category
}

// OutboxEventConverter преобразует сущности OutboxEvent между usecase и моделью PostgreSQL.
type OutboxEventConverter interface {
	ToModel(entity *usecase.OutboxEvent) *OutboxEventModel
	ToEntity(model *OutboxEventModel) *usecase.OutboxEvent
	ToArrEntity(models []*OutboxEventModel) []*usecase.OutboxEvent
}

type ProductConverterImpl struct{}

func NewProductConverterImpl() *ProductConverterImpl {
	return &ProductConverterImpl{}
}

// ToEntity переводит строку products в публичную сущность: category_id -> CategoryID,
// текстовая цена -> float64, jsonb rating -> *Rating (nil для NULL).
func (c *ProductConverterImpl) ToEntity(model *ProductModel) (*domain.Product, error) {
	price, err := ConvertPrice(model.Price)
	if err != nil {
		return nil, fmt.Errorf("product %d: %w", model.ID, err)
	}

	rating, err := ConvertRating(model.Rating)
	if err != nil {
		return nil, fmt.Errorf("product %d: %w", model.ID, err)
	}

	return &domain.Product{
		ID:          model.ID,
		Title:       model.Title,
		Price:       price,
		Description: model.Description,
		Image:       model.Image,
		CategoryID:  model.CategoryID,
		Rating:      rating,
	}, nil
}

func (c *ProductConverterImpl) ToArrEntity(models []ProductModel) ([]domain.Product, error) {
	result := make([]domain.Product, 0, len(models))
	for i := range models {
		product, err := c.ToEntity(&models[i])
		if err != nil {
			return nil, err
		}
		result = append(result, *product)
	}

	return result, nil
}

// RatingToParam сериализует рейтинг для записи в jsonb. nil превращается в NULL.
func (c *ProductConverterImpl) RatingToParam(rating *domain.Rating) (any, error) {
	if rating == nil {
		return nil, nil
	}

	data, err := json.Marshal(rating)
	if err != nil {
		return nil, fmt.Errorf("marshal rating: %w", err)
	}

	return data, nil
}

// ConvertPrice разбирает numeric, пришедший из хранилища строкой.
func ConvertPrice(raw string) (float64, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q: %w", raw, err)
	}

	return d.InexactFloat64(), nil
}

// ConvertRating восстанавливает рейтинг из jsonb. NULL и JSON null дают nil.
func ConvertRating(raw []byte) (*domain.Rating, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var rating domain.Rating
	if err := json.Unmarshal(raw, &rating); err != nil {
		return nil, fmt.Errorf("invalid rating: %w", err)
	}

	return &rating, nil
}

type CategoryConverterImpl struct{}

func NewCategoryConverterImpl() *CategoryConverterImpl {
	return &CategoryConverterImpl{}
}

func (c *CategoryConverterImpl) ToModel(entity *domain.Category) *CategoryModel {
	return &CategoryModel{ID: entity.ID, Name: entity.Name}
}

func (c *CategoryConverterImpl) ToEntity(model *CategoryModel) *domain.Category {
	return &domain.Category{ID: model.ID, Name: model.Name}
}

func (c *CategoryConverterImpl) ToArrEntity(models []CategoryModel) []domain.Category {
	result := make([]domain.Category, 0, len(models))
	for i := range models {
		result = append(result, *c.ToEntity(&models[i]))
	}

	return result
}

type OutboxEventConverterImpl struct{}

func NewOutboxEventConverterImpl() *OutboxEventConverterImpl {
	return &OutboxEventConverterImpl{}
}

func (c *OutboxEventConverterImpl) ToModel(entity *usecase.OutboxEvent) *OutboxEventModel {
	return &OutboxEventModel{
		ID:          entity.ID,
		EventID:     entity.EventID,
		EventType:   string(entity.EventType),
		ProductID:   entity.ProductID,
		Payload:     entity.Payload,
		Status:      string(entity.Status),
		CreatedAt:   entity.CreatedAt,
		ProcessedAt: entity.ProcessedAt,
	}
}

func (c *OutboxEventConverterImpl) ToEntity(model *OutboxEventModel) *usecase.OutboxEvent {
	return &usecase.OutboxEvent{
		ID:          model.ID,
		EventID:     model.EventID,
		EventType:   usecase.OutboxEventType(model.EventType),
		ProductID:   model.ProductID,
		Payload:     model.Payload,
		Status:      usecase.OutboxStatus(model.Status),
		CreatedAt:   model.CreatedAt,
		ProcessedAt: model.ProcessedAt,
	}
}

func (c *OutboxEventConverterImpl) ToArrEntity(models []*OutboxEventModel) []*usecase.OutboxEvent {
	result := make([]*usecase.OutboxEvent, 0, len(models))
	for _, model := range models {
		result = append(result, c.ToEntity(model))
	}

	return result
}

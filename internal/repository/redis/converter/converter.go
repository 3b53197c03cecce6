package converter

import "github.com/DRSN-tech/catalog-backend/internal/domain"

type ProductConverter interface {
	ToRedisModel(entity *domain.Product) *ProductRedisModel
	ToEntity(model *ProductRedisModel) *domain.Product
	ToArrRedisModel(entities []domain.Product) []ProductRedisModel
	ToArrEntity(models []ProductRedisModel) []domain.Product
}

type CategoryConverter interface {
	ToArrRedisModel(entities []domain.Category) []CategoryRedisModel
	ToArrEntity(models []CategoryRedisModel) []domain.Category
}

type ProductConverterImpl struct{}

func NewProductConverterImpl() *ProductConverterImpl {
	return &ProductConverterImpl{}
}

func (c *ProductConverterImpl) ToRedisModel(entity *domain.Product) *ProductRedisModel {
	model := &ProductRedisModel{
		ID:          entity.ID,
		Title:       entity.Title,
		Price:       entity.Price,
		Description: entity.Description,
		Image:       entity.Image,
		CategoryID:  entity.CategoryID,
	}
	if entity.Rating != nil {
		model.Rating = &RatingRedisModel{Rate: entity.Rating.Rate, Count: entity.Rating.Count}
	}

	return model
}

func (c *ProductConverterImpl) ToEntity(model *ProductRedisModel) *domain.Product {
	entity := &domain.Product{
		ID:          model.ID,
		Title:       model.Title,
		Price:       model.Price,
		Description: model.Description,
		Image:       model.Image,
		CategoryID:  model.CategoryID,
	}
	if model.Rating != nil {
		entity.Rating = &domain.Rating{Rate: model.Rating.Rate, Count: model.Rating.Count}
	}

	return entity
}

func (c *ProductConverterImpl) ToArrRedisModel(entities []domain.Product) []ProductRedisModel {
	result := make([]ProductRedisModel, 0, len(entities))
	for i := range entities {
		result = append(result, *c.ToRedisModel(&entities[i]))
	}

	return result
}

func (c *ProductConverterImpl) ToArrEntity(models []ProductRedisModel) []domain.Product {
	result := make([]domain.Product, 0, len(models))
	for i := range models {
		result = append(result, *c.ToEntity(&models[i]))
	}

	return result
}

type CategoryConverterImpl struct{}

func NewCategoryConverterImpl() *CategoryConverterImpl {
	return &CategoryConverterImpl{}
}

func (c *CategoryConverterImpl) ToArrRedisModel(entities []domain.Category) []CategoryRedisModel {
	result := make([]CategoryRedisModel, 0, len(entities))
	for _, entity := range entities {
		result = append(result, CategoryRedisModel{ID: entity.ID, Name: entity.Name})
	}

	return result
}

func (c *CategoryConverterImpl) ToArrEntity(models []CategoryRedisModel) []domain.Category {
	result := make([]domain.Category, 0, len(models))
	for _, model := range models {
		result = append(result, domain.Category{ID: model.ID, Name: model.Name})
	}

	return result
}

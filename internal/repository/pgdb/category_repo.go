package pgdb

import (
	"context"
	"errors"

	"github.com/DRSN-tech/catalog-backend/internal/domain"
	"github.com/DRSN-tech/catalog-backend/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/catalog-backend/pkg/e"
	"github.com/DRSN-tech/catalog-backend/pkg/postgres"
	"github.com/jackc/pgx/v5"
)

// CategoryRepo реализует репозиторий категорий поверх PostgreSQL.
type CategoryRepo struct {
	x    *postgres.Executor
	conv converter.CategoryConverter
}

func NewCategoryRepo(x *postgres.Executor, conv converter.CategoryConverter) *CategoryRepo {
	return &CategoryRepo{x: x, conv: conv}
}

func scanCategory(row pgx.CollectableRow) (converter.CategoryModel, error) {
	var model converter.CategoryModel
	err := row.Scan(&model.ID, &model.Name)
	return model, err
}

// Create сохраняет категорию. Дубликаты имён допускаются.
func (c *CategoryRepo) Create(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	const op = "CategoryRepo.Create"

	query := `
		INSERT INTO categories (name) VALUES ($1)
		RETURNING id, name;
	`

	model, err := postgres.QueryOne(ctx, c.x, op, query, []any{c.conv.ToModel(category).Name}, scanCategory)
	if err != nil {
		return nil, err
	}

	return c.conv.ToEntity(&model), nil
}

// List возвращает все категории в порядке хранилища.
func (c *CategoryRepo) List(ctx context.Context) ([]domain.Category, error) {
	const op = "CategoryRepo.List"

	models, err := postgres.Query(ctx, c.x, op, `SELECT id, name FROM categories`, nil, scanCategory)
	if err != nil {
		return nil, err
	}

	return c.conv.ToArrEntity(models), nil
}

// Exists проверяет наличие категории. С lock=true строка блокируется FOR SHARE
// до конца текущей транзакции, так что параллельное удаление категории подождёт.
func (c *CategoryRepo) Exists(ctx context.Context, id int64, lock bool) (bool, error) {
	const op = "CategoryRepo.Exists"

	query := `SELECT id FROM categories WHERE id = $1`
	if lock {
		query += ` FOR SHARE`
	}

	_, err := postgres.QueryOne(ctx, c.x, op, query, []any{id}, pgx.RowTo[int64])
	if err != nil {
		if errors.Is(err, e.ErrNoRows) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

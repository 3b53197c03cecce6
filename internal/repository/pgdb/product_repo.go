package pgdb

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/DRSN-tech/catalog-backend/internal/domain"
	"github.com/DRSN-tech/catalog-backend/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/catalog-backend/internal/usecase"
	"github.com/DRSN-tech/catalog-backend/pkg/e"
	"github.com/DRSN-tech/catalog-backend/pkg/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jimlawless/whereami"
)

var errEmptyUpdate = errors.New("update has no fields")

// productColumns — колонки products в порядке полей ProductModel. numeric читается текстом.
const productColumns = `id, title, price::text AS price, description, image, category_id, rating`

// ProductRepo реализует репозиторий продуктов поверх PostgreSQL.
type ProductRepo struct {
	x    *postgres.Executor
	conv converter.ProductConverter
}

func NewProductRepo(x *postgres.Executor, conv converter.ProductConverter) *ProductRepo {
	return &ProductRepo{
		x:    x,
		conv: conv,
	}
}

func scanProduct(row pgx.CollectableRow) (converter.ProductModel, error) {
	var model converter.ProductModel
	err := row.Scan(
		&model.ID, &model.Title, &model.Price, &model.Description,
		&model.Image, &model.CategoryID, &model.Rating,
	)
	return model, err
}

// Create вставляет продукт. Существование категории проверяет вызывающий код.
func (p *ProductRepo) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	const op = "ProductRepo.Create"

	rating, err := p.conv.RatingToParam(product.Rating)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		INSERT INTO products (title, price, description, image, category_id, rating)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + productColumns

	model, err := postgres.QueryOne(ctx, p.x, op, query, []any{
		product.Title, product.Price, product.Description, product.Image, product.CategoryID, rating,
	}, scanProduct)
	if err != nil {
		return nil, err
	}

	return p.toEntity(&model)
}

// List возвращает все продукты в порядке хранилища.
func (p *ProductRepo) List(ctx context.Context) ([]domain.Product, error) {
	const op = "ProductRepo.List"

	models, err := postgres.Query(ctx, p.x, op, `SELECT `+productColumns+` FROM products`, nil, scanProduct)
	if err != nil {
		return nil, err
	}

	products, err := p.conv.ToArrEntity(models)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return products, nil
}

// GetByID возвращает продукт или e.NotFound. forUpdate блокирует строку до конца транзакции.
func (p *ProductRepo) GetByID(ctx context.Context, id int64, forUpdate bool) (*domain.Product, error) {
	const op = "ProductRepo.GetByID"

	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	model, err := postgres.QueryOne(ctx, p.x, op, query, []any{id}, scanProduct)
	if err != nil {
		if errors.Is(err, e.ErrNoRows) {
			return nil, e.NotFound("product", id)
		}
		return nil, err
	}

	return p.toEntity(&model)
}

// Update записывает только переданные поля патча. Пустой патч сюда не передаётся.
func (p *ProductRepo) Update(ctx context.Context, id int64, req *usecase.UpdateProductReq) (*domain.Product, error) {
	const op = "ProductRepo.Update"

	query, args, err := p.buildUpdate(id, req)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	model, err := postgres.QueryOne(ctx, p.x, op, query, args, scanProduct)
	if err != nil {
		if errors.Is(err, e.ErrNoRows) {
			return nil, e.NotFound("product", id)
		}
		return nil, err
	}

	return p.toEntity(&model)
}

// Delete удаляет продукт и возвращает число удалённых строк.
func (p *ProductRepo) Delete(ctx context.Context, id int64) (int64, error) {
	const op = "ProductRepo.Delete"

	return p.x.Exec(ctx, op, `DELETE FROM products WHERE id = $1`, id)
}

// buildUpdate собирает UPDATE по переданным полям в фиксированном порядке:
// title, price, description, image, category_id, rating. id всегда последний параметр.
func (p *ProductRepo) buildUpdate(id int64, req *usecase.UpdateProductReq) (string, []any, error) {
	var (
		sets []string
		args []any
	)

	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, column+" = $"+strconv.Itoa(len(args)))
	}

	if req.Title.Set {
		set("title", req.Title.Value)
	}
	if req.Price.Set {
		set("price", req.Price.Value)
	}
	if req.Description.Set {
		set("description", req.Description.Value)
	}
	if req.Image.Set {
		set("image", req.Image.Value)
	}
	if req.CategoryID.Set {
		set("category_id", req.CategoryID.Value)
	}
	if req.Rating.Set {
		rating, err := p.conv.RatingToParam(req.Rating.Value)
		if err != nil {
			return "", nil, err
		}
		set("rating", rating)
	}

	if len(sets) == 0 {
		return "", nil, errEmptyUpdate
	}

	args = append(args, id)
	query := `UPDATE products SET ` + strings.Join(sets, ", ") +
		` WHERE id = $` + strconv.Itoa(len(args)) +
		` RETURNING ` + productColumns

	return query, args, nil
}

func (p *ProductRepo) toEntity(model *converter.ProductModel) (*domain.Product, error) {
	product, err := p.conv.ToEntity(model)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return product, nil
}

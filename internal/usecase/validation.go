package usecase

import (
	"math"
	"net/url"
	"strings"

	"github.com/DRSN-tech/catalog-backend/internal/domain"
	"github.com/DRSN-tech/catalog-backend/pkg/e"
)

// ValidateCategoryInput проверяет запрос на создание категории.
func ValidateCategoryInput(in CategoryInput) (*CreateCategoryReq, error) {
	name := strings.TrimSpace(in.Name.Value)
	if !in.Name.Set || in.Name.Null || name == "" {
		return nil, e.Validation("name must be a non-empty string")
	}

	return &CreateCategoryReq{Name: name}, nil
}

// ValidateCreateProductInput проверяет запрос на создание продукта. Ошибки всех полей
// собираются в одну ошибку валидации.
func ValidateCreateProductInput(in ProductInput) (*CreateProductReq, error) {
	var v validator

	req := &CreateProductReq{}

	if !in.Title.Set || in.Title.Null {
		v.add("title is required")
	} else {
		req.Title = v.title(in.Title.Value)
	}

	if !in.Price.Set || in.Price.Null {
		v.add("price is required")
	} else {
		req.Price = v.price(in.Price.Value)
	}

	if !in.CategoryID.Set || in.CategoryID.Null {
		v.add("categoryId is required")
	} else {
		req.CategoryID = v.categoryID(in.CategoryID.Value)
	}

	req.Description = in.Description.Value
	if in.Image.Set && !in.Image.Null {
		req.Image = v.image(in.Image.Value)
	}

	if in.Rating.Set && !in.Rating.Null {
		req.Rating = v.rating(in.Rating.Value)
	}

	if err := v.err(); err != nil {
		return nil, err
	}

	return req, nil
}

// ValidateUpdateProductInput применяет те же правила только к переданным полям.
// null для description и image трактуется как пустая строка, для rating — как очистка.
func ValidateUpdateProductInput(in ProductInput) (*UpdateProductReq, error) {
	var v validator

	req := &UpdateProductReq{}

	if in.Title.Set {
		if in.Title.Null {
			v.add("title must be a non-empty string")
		} else {
			req.Title = Some(v.title(in.Title.Value))
		}
	}

	if in.Price.Set {
		if in.Price.Null {
			v.add("price must be a number")
		} else {
			req.Price = Some(v.price(in.Price.Value))
		}
	}

	if in.CategoryID.Set {
		if in.CategoryID.Null {
			v.add("categoryId must be a number")
		} else {
			req.CategoryID = Some(v.categoryID(in.CategoryID.Value))
		}
	}

	if in.Description.Set {
		req.Description = Some(in.Description.Value)
	}

	if in.Image.Set {
		image := ""
		if !in.Image.Null {
			image = v.image(in.Image.Value)
		}
		req.Image = Some(image)
	}

	if in.Rating.Set {
		var rating *domain.Rating
		if !in.Rating.Null {
			rating = v.rating(in.Rating.Value)
		}
		req.Rating = Some(rating)
	}

	if err := v.err(); err != nil {
		return nil, err
	}

	return req, nil
}

type validator struct {
	problems []string
}

func (v *validator) add(problem string) {
	v.problems = append(v.problems, problem)
}

func (v *validator) err() error {
	if len(v.problems) == 0 {
		return nil
	}

	return e.Validation(v.problems...)
}

func (v *validator) title(s string) string {
	if strings.TrimSpace(s) == "" {
		v.add("title must be a non-empty string")
	}

	return s
}

// price принимает любое конечное неотрицательное число; колонка numeric хранит его без округления.
func (v *validator) price(p float64) float64 {
	switch {
	case math.IsNaN(p) || math.IsInf(p, 0):
		v.add("price must be a number")
	case p < 0:
		v.add("price must be greater than or equal to 0")
	}

	return p
}

func (v *validator) categoryID(id float64) int64 {
	if id != math.Trunc(id) || id < 1 || id >= math.MaxInt64 {
		v.add("categoryId must be a positive integer")
		return 0
	}

	return int64(id)
}

func (v *validator) image(s string) string {
	if s == "" {
		return s
	}

	u, err := url.ParseRequestURI(s)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		v.add("image must be an absolute http(s) URL")
	}

	return s
}

func (v *validator) rating(in *RatingInput) *domain.Rating {
	if in == nil {
		return nil
	}

	rating := &domain.Rating{}

	switch {
	case in.Rate == nil:
		v.add("rating.rate is required")
	case *in.Rate < 0 || math.IsNaN(*in.Rate):
		v.add("rating.rate must be greater than or equal to 0")
	default:
		rating.Rate = *in.Rate
	}

	switch {
	case in.Count == nil:
		v.add("rating.count is required")
	case *in.Count < 0:
		v.add("rating.count must be greater than or equal to 0")
	case *in.Count != math.Trunc(*in.Count) || *in.Count >= math.MaxInt64:
		v.add("rating.count must be an integer")
	default:
		rating.Count = int64(*in.Count)
	}

	return rating
}

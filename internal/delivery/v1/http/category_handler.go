package http

import (
	"net/http"

	"github.com/DRSN-tech/catalog-backend/internal/usecase"
	"github.com/DRSN-tech/catalog-backend/pkg/logger"
)

type CategoryHandler struct {
	categoryUsecase usecase.CategoryUC
	logger          logger.Logger
}

func NewCategoryHandler(categoryUsecase usecase.CategoryUC, logger logger.Logger) *CategoryHandler {
	return &CategoryHandler{categoryUsecase: categoryUsecase, logger: logger}
}

func (c *CategoryHandler) createCategory(w http.ResponseWriter, r *http.Request) {
	var in usecase.CategoryInput
	if err := decodeJSON(w, r, &in); err != nil {
		c.logger.Warnf("%d create category: %s", http.StatusBadRequest, err.Error())
		WriteError(w, err)
		return
	}

	req, err := usecase.ValidateCategoryInput(in)
	if err != nil {
		c.logger.Warnf("%d create category: %s", http.StatusBadRequest, err.Error())
		WriteError(w, err)
		return
	}

	category, err := c.categoryUsecase.CreateCategory(r.Context(), req)
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, category)
}

func (c *CategoryHandler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := c.categoryUsecase.ListCategories(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, categories)
}

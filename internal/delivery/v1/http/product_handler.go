package http

import (
	"net/http"

	"github.com/DRSN-tech/catalog-backend/internal/usecase"
	"github.com/DRSN-tech/catalog-backend/pkg/logger"
)

type ProductHandler struct {
	productUsecase usecase.ProductUC
	logger         logger.Logger
}

func NewProductHandler(productUsecase usecase.ProductUC, logger logger.Logger) *ProductHandler {
	return &ProductHandler{productUsecase: productUsecase, logger: logger}
}

func (p *ProductHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	var in usecase.ProductInput
	if err := decodeJSON(w, r, &in); err != nil {
		p.logger.Warnf("%d create product: %s", http.StatusBadRequest, err.Error())
		WriteError(w, err)
		return
	}

	req, err := usecase.ValidateCreateProductInput(in)
	if err != nil {
		p.logger.Warnf("%d create product: %s", http.StatusBadRequest, err.Error())
		WriteError(w, err)
		return
	}

	product, err := p.productUsecase.CreateProduct(r.Context(), req)
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, product)
}

func (p *ProductHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := p.productUsecase.ListProducts(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, products)
}

// updateProduct обслуживает и PUT, и PATCH: меняются только переданные поля.
func (p *ProductHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	var in usecase.ProductInput
	if err := decodeJSON(w, r, &in); err != nil {
		p.logger.Warnf("%d update product %d: %s", http.StatusBadRequest, id, err.Error())
		WriteError(w, err)
		return
	}

	req, err := usecase.ValidateUpdateProductInput(in)
	if err != nil {
		p.logger.Warnf("%d update product %d: %s", http.StatusBadRequest, id, err.Error())
		WriteError(w, err)
		return
	}

	product, err := p.productUsecase.UpdateProduct(r.Context(), id, req)
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, product)
}

func (p *ProductHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	res, err := p.productUsecase.DeleteProduct(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, res)
}

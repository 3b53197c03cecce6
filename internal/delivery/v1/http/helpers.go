package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/DRSN-tech/catalog-backend/pkg/e"
	"github.com/go-chi/chi/v5"
)

const maxBodySize = 1 << 20

type ErrorResponse struct {
	Code    int      `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

func NewErrorResponse(code int, message string, details []string) *ErrorResponse {
	return &ErrorResponse{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// ToHTTPResponse сопоставляет вид ошибки с HTTP-статусом. Внутренние детали наружу не уходят.
func ToHTTPResponse(err error) *ErrorResponse {
	var appErr *e.Error
	errors.As(err, &appErr)

	switch e.KindOf(err) {
	case e.KindValidation:
		return NewErrorResponse(http.StatusBadRequest, "validation failed", appErr.Fields)
	case e.KindNotFound:
		return NewErrorResponse(http.StatusNotFound, appErr.Error(), nil)
	default:
		return NewErrorResponse(http.StatusInternalServerError, e.ErrInternalServerError.Error(), nil)
	}
}

func WriteError(w http.ResponseWriter, err error) {
	resp := ToHTTPResponse(err)
	WriteSuccess(w, resp.Code, resp)
}

func WriteSuccess(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// decodeJSON читает тело запроса в dst. Синтаксические ошибки и несовпадение типов
// возвращаются как ошибки валидации.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &typeErr):
			return e.Validation(typeMismatch(typeErr.Field))
		case errors.As(err, &maxErr):
			return e.Validation(fmt.Sprintf("request body must not exceed %d bytes", maxErr.Limit))
		case errors.Is(err, io.EOF):
			return e.Validation("request body must be a JSON object")
		default:
			return e.Validation("request body is not valid JSON")
		}
	}

	return nil
}

func typeMismatch(field string) string {
	switch field {
	case "title", "name":
		return field + " must be a non-empty string"
	case "price", "categoryId":
		return field + " must be a number"
	case "rating":
		return "rating must be an object"
	case "":
		return "request body must be a JSON object"
	default:
		return field + " has an invalid type"
	}
}

func parseID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, e.Validation("id must be a positive integer")
	}

	return id, nil
}

package e

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestKindOf(t *testing.T) {
	driverErr := errors.New("connection reset by peer")

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindUnknown},
		{"plain", errors.New("boom"), KindUnknown},
		{"not found", NotFound("category", 7), KindNotFound},
		{"wrapped not found", Wrap("op", NotFound("product", 1)), KindNotFound},
		{"validation", Validation("title is required"), KindValidation},
		{"storage", Storage("products.list", driverErr), KindStorage},
		{"internal over storage", Internal("list products", Storage("products.list", driverErr)), KindInternal},
		{"internal keeps not found", Internal("create product", NotFound("category", 3)), KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNotFoundMessage(t *testing.T) {
	err := NotFound("category", 42)
	if got := err.Error(); got != "category with id 42 not found" {
		t.Errorf("unexpected message: %q", got)
	}

	var typed *Error
	if !errors.As(err, &typed) {
		t.Fatal("expected *Error")
	}
	if typed.ID != 42 || typed.Resource != "category" {
		t.Errorf("unexpected payload: %+v", typed)
	}
}

func TestInternalKeepsOriginalMessage(t *testing.T) {
	driverErr := errors.New("duplicate key value")
	err := Internal("create category", Storage("categories.create", driverErr))

	if !errors.Is(err, driverErr) {
		t.Error("expected driver error in chain")
	}
	if !strings.Contains(err.Error(), "create category") || !strings.Contains(err.Error(), "duplicate key value") {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

func TestValidationFields(t *testing.T) {
	err := Validation("title is required", "price must be >= 0")
	msg := fmt.Sprint(err)
	if !strings.Contains(msg, "title is required; price must be >= 0") {
		t.Errorf("unexpected message: %q", msg)
	}
}

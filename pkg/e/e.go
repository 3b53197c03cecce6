package e

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// Внутренние ошибки с транзакциями
	ErrTransactionNotFound = fmt.Errorf("transaction not found")

	// Ошибки хранилища
	ErrNoRows         = fmt.Errorf("no rows in result set")
	ErrAcquireTimeout = fmt.Errorf("connection acquire timeout")

	ErrIncorrectEnvVariable = fmt.Errorf("incorrect environment variable")
	ErrInternalServerError  = fmt.Errorf("internal server error")
)

// Kind — закрытый набор категорий ошибок, на которые может опираться вызывающий код.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindStorage
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindStorage:
		return "storage"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error — типизированная ошибка сервисного слоя.
type Error struct {
	Kind     Kind
	Op       string
	Resource string
	ID       int64
	Msg      string
	Fields   []string
	Err      error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}

	switch {
	case e.Msg != "":
		b.WriteString(e.Msg)
	case e.Kind == KindNotFound:
		fmt.Fprintf(&b, "%s with id %d not found", e.Resource, e.ID)
	default:
		b.WriteString(e.Kind.String())
	}

	if len(e.Fields) > 0 {
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Fields, "; "))
	}

	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}

	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound сообщает об отсутствии сущности resource с идентификатором id.
func NotFound(resource string, id int64) error {
	return &Error{Kind: KindNotFound, Resource: resource, ID: id}
}

// Validation собирает ошибки проверки входных данных.
func Validation(fields ...string) error {
	return &Error{Kind: KindValidation, Msg: "validation failed", Fields: fields}
}

// Storage оборачивает ошибку драйвера.
func Storage(op string, err error) error {
	return &Error{Kind: KindStorage, Op: op, Err: err}
}

// Internal оборачивает ошибку сообщением конкретной операции, сохраняя исходный текст для диагностики.
// Ошибки NotFound и Validation пропускаются без изменений.
func Internal(msg string, err error) error {
	switch KindOf(err) {
	case KindNotFound, KindValidation:
		return err
	}

	return &Error{Kind: KindInternal, Msg: msg, Err: err}
}

// KindOf возвращает категорию ошибки. Для ошибок без категории — KindUnknown.
// Если в цепочке несколько *Error, приоритет у самой внешней.
func KindOf(err error) Kind {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind
	}

	return KindUnknown
}

// Is сообщает, относится ли ошибка к категории kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}

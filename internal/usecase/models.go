package usecase

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/DRSN-tech/catalog-backend/internal/domain"
)

// Optional отличает отсутствующее поле от переданного. Для JSON: ключа нет — Set=false,
// явный null — Set=true и Null=true.
type Optional[T any] struct {
	Value T
	Set   bool
	Null  bool
}

// Some возвращает заданное значение.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// Null возвращает заданное, но пустое значение.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		var zero T
		o.Value = zero
		o.Null = true
		return nil
	}

	o.Null = false
	return json.Unmarshal(data, &o.Value)
}

// CATEGORY USECASE

// CategoryInput — сырые данные запроса на создание категории.
type CategoryInput struct {
	Name Optional[string] `json:"name"`
}

// CreateCategoryReq — проверенный запрос на создание категории.
type CreateCategoryReq struct {
	Name string
}

// PRODUCT USECASE

// RatingInput — сырые данные рейтинга. Поля-указатели позволяют отличить 0 от отсутствия.
type RatingInput struct {
	Rate  *float64 `json:"rate"`
	Count *float64 `json:"count"`
}

// ProductInput — сырые данные запроса на создание или изменение продукта.
type ProductInput struct {
	Title       Optional[string]       `json:"title"`
	Price       Optional[float64]      `json:"price"`
	Description Optional[string]       `json:"description"`
	Image       Optional[string]       `json:"image"`
	CategoryID  Optional[float64]      `json:"categoryId"`
	Rating      Optional[*RatingInput] `json:"rating"`
}

// CreateProductReq — проверенный запрос на создание продукта.
type CreateProductReq struct {
	Title       string
	Price       float64
	Description string
	Image       string
	CategoryID  int64
	Rating      *domain.Rating
}

// UpdateProductReq — проверенный частичный патч продукта. Применяются только поля с Set=true.
// Rating с Set=true и Value=nil очищает рейтинг.
type UpdateProductReq struct {
	Title       Optional[string]
	Price       Optional[float64]
	Description Optional[string]
	Image       Optional[string]
	CategoryID  Optional[int64]
	Rating      Optional[*domain.Rating]
}

// HasChanges сообщает, есть ли в патче хотя бы одно поле.
func (r *UpdateProductReq) HasChanges() bool {
	return r.Title.Set || r.Price.Set || r.Description.Set || r.Image.Set || r.CategoryID.Set || r.Rating.Set
}

// DeleteProductRes — подтверждение удаления продукта.
type DeleteProductRes struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

// OUTBOX

type OutboxStatus string

const (
	Pending    OutboxStatus = "pending"
	Processing OutboxStatus = "processing"
	Processed  OutboxStatus = "processed"
)

type OutboxEventType string

const (
	ProductCreated OutboxEventType = "product.created"
	ProductUpdated OutboxEventType = "product.updated"
	ProductDeleted OutboxEventType = "product.deleted"
)

// OutboxEvent — событие об изменении продукта, ожидающее публикации в Kafka.
type OutboxEvent struct {
	ID          int64
	EventID     string
	EventType   OutboxEventType
	ProductID   int64
	Payload     []byte
	Status      OutboxStatus
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// ProductEventPayload — тело сообщения, уходящего в топик.
type ProductEventPayload struct {
	EventID    string          `json:"eventId"`
	EventType  OutboxEventType `json:"eventType"`
	OccurredAt time.Time       `json:"occurredAt"`
	Product    domain.Product  `json:"product"`
}

// INFRASTRUCTURE

type WriteRawMessageReq struct {
	ProductID int64
	EventType OutboxEventType
	Payload   []byte
}

// MAPPERS

func NewCreateProductReq(title string, price float64, description, image string, categoryID int64, rating *domain.Rating) *CreateProductReq {
	return &CreateProductReq{
		Title:       title,
		Price:       price,
		Description: description,
		Image:       image,
		CategoryID:  categoryID,
		Rating:      rating,
	}
}

func NewDeleteProductRes(id int64) *DeleteProductRes {
	return &DeleteProductRes{
		ID:      id,
		Message: fmt.Sprintf("Product with ID %d deleted successfully", id),
	}
}

func NewOutboxEvent(eventID string, eventType OutboxEventType, productID int64, payload []byte, createdAt time.Time) *OutboxEvent {
	return &OutboxEvent{
		EventID:   eventID,
		EventType: eventType,
		ProductID: productID,
		Payload:   payload,
		Status:    Pending,
		CreatedAt: createdAt,
	}
}

func NewWriteRawMessageReq(productID int64, eventType OutboxEventType, payload []byte) *WriteRawMessageReq {
	return &WriteRawMessageReq{
		ProductID: productID,
		EventType: eventType,
		Payload:   payload,
	}
}

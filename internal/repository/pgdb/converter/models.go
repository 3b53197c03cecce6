package converter

import "time"

// CategoryModel представляет запись таблицы categories в PostgreSQL.
type CategoryModel struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

// ProductModel представляет запись таблицы products в PostgreSQL.
// Price читается как текст (price::text), Rating — сырой jsonb или nil для NULL.
type ProductModel struct {
	ID          int64  `db:"id"`
	Title       string `db:"title"`
	Price       string `db:"price"`
	Description string `db:"description"`
	Image       string `db:"image"`
	CategoryID  int64  `db:"category_id"`
	Rating      []byte `db:"rating"`
}

// OutboxEventModel представляет запись таблицы outbox_events в PostgreSQL.
type OutboxEventModel struct {
	ID          int64      `db:"id"`
	EventID     string     `db:"event_id"`
	EventType   string     `db:"event_type"`
	ProductID   int64      `db:"product_id"`
	Payload     []byte     `db:"payload"`
	Status      string     `db:"status"`
	CreatedAt   time.Time  `db:"created_at"`
	ProcessedAt *time.Time `db:"processed_at"`
}

package converter

// ProductRedisModel — продукт в кэше. Формат не зависит от JSON-ответа API.
type ProductRedisModel struct {
	ID          int64             `json:"id"`
	Title       string            `json:"title"`
	Price       float64           `json:"price"`
	Description string            `json:"description"`
	Image       string            `json:"image"`
	CategoryID  int64             `json:"category_id"`
	Rating      *RatingRedisModel `json:"rating,omitempty"`
}

type RatingRedisModel struct {
	Rate  float64 `json:"rate"`
	Count int64   `json:"count"`
}

type CategoryRedisModel struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

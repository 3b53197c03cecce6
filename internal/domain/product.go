package domain

// Product описывает продукт каталога
type Product struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Image       string  `json:"image"`
	CategoryID  int64   `json:"categoryId"`
	Rating      *Rating `json:"rating,omitempty"`
}

// Rating — необязательная оценка продукта: средний балл и число отзывов.
type Rating struct {
	Rate  float64 `json:"rate"`
	Count int64   `json:"count"`
}

func NewProduct(title string, price float64, description, image string, categoryID int64, rating *Rating) *Product {
	return &Product{
		Title:       title,
		Price:       price,
		Description: description,
		Image:       image,
		CategoryID:  categoryID,
		Rating:      rating,
	}
}

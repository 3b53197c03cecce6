package domain

// Category описывает категорию продуктов
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func NewCategory(name string) *Category {
	return &Category{
		Name: name,
	}
}

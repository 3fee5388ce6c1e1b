package domain

// Category is a top-level menu group such as Pizza or Drinks.
type Category struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Image *string `json:"category_image,omitempty"`
}

// MenuSection is one product type inside a category, listing its products.
type MenuSection struct {
	ID       int64     `json:"id"`
	Name     string    `json:"name"`
	Products []Product `json:"products"`
}

// CategoryMenu is a category with its products grouped by type, in menu order.
type CategoryMenu struct {
	Category Category      `json:"category"`
	Sections []MenuSection `json:"sections"`
}

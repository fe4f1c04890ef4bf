package entity

type Category struct {
	ID          int    `json:"id" db:"id" yaml:"id"`
	Name        string `json:"name" db:"name" yaml:"name"`
	Slug        string `json:"slug" db:"slug" yaml:"slug"`
	Description string `json:"description" db:"description" yaml:"description"`
	ImageURL    string `json:"imageUrl" db:"image_url" yaml:"imageUrl"`
}

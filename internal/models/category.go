package models

import (
	"slices"
	"time"
)

// DefaultCategoryColor is used when a category is created without a color
const DefaultCategoryColor = "#3B82F6"

// Category groups articles; ArticlesCount is maintained by article writes only
type Category struct {
	ID             int64     `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	NameEnglish    string    `json:"nameEnglish" db:"name_english"`
	Slug           string    `json:"slug" db:"slug"`
	Description    string    `json:"description" db:"description"`
	Color          string    `json:"color" db:"color"`
	Icon           string    `json:"icon" db:"icon"`
	Subcategories  []string  `json:"subcategories" db:"subcategories"`
	SEOTitle       string    `json:"seoTitle" db:"seo_title"`
	SEODescription string    `json:"seoDescription" db:"seo_description"`
	IsActive       bool      `json:"isActive" db:"is_active"`
	ArticlesCount  int       `json:"articlesCount" db:"articles_count"`
	Order          int       `json:"order" db:"sort_order"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
}

// HasSubcategory reports whether name is one of the category's subcategories
func (c *Category) HasSubcategory(name string) bool {
	return slices.Contains(c.Subcategories, name)
}

// Summary returns the representation embedded in articles
func (c *Category) Summary() *CategorySummary {
	return &CategorySummary{ID: c.ID, Name: c.Name, Subcategories: c.Subcategories}
}

// CategoryInput carries client-writable category fields
type CategoryInput struct {
	Name           *string   `json:"name"`
	NameEnglish    *string   `json:"nameEnglish"`
	Description    *string   `json:"description"`
	Color          *string   `json:"color"`
	Icon           *string   `json:"icon"`
	Subcategories  *[]string `json:"subcategories"`
	SEOTitle       *string   `json:"seoTitle"`
	SEODescription *string   `json:"seoDescription"`
	IsActive       *bool     `json:"isActive"`
	Order          *int      `json:"order"`
}

// ApplyTo copies provided fields onto c
func (in *CategoryInput) ApplyTo(c *Category) {
	setString(&c.Name, in.Name)
	setString(&c.NameEnglish, in.NameEnglish)
	setString(&c.Description, in.Description)
	setString(&c.Color, in.Color)
	setString(&c.Icon, in.Icon)
	if in.Subcategories != nil {
		c.Subcategories = *in.Subcategories
	}
	setString(&c.SEOTitle, in.SEOTitle)
	setString(&c.SEODescription, in.SEODescription)
	setBool(&c.IsActive, in.IsActive)
	if in.Order != nil {
		c.Order = *in.Order
	}
}

// CategorySummary is the category representation embedded in articles
type CategorySummary struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	Subcategories []string `json:"subcategories"`
}

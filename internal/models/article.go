package models

import (
	"time"
)

// ArticleStatus is the editorial state of an article
type ArticleStatus string

const (
	ArticleDraft     ArticleStatus = "draft"
	ArticlePublished ArticleStatus = "published"
	ArticleScheduled ArticleStatus = "scheduled"
)

// ValidStatuses defines allowed article statuses
var ValidStatuses = map[ArticleStatus]bool{
	ArticleDraft:     true,
	ArticlePublished: true,
	ArticleScheduled: true,
}

// MaxFeaturedArticles is the global cap on articles with IsFeatured set
const MaxFeaturedArticles = 3

// Date and time layouts used by publishDate / publishTime
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

// Article represents a news article
type Article struct {
	ID             int64            `json:"id" db:"id"`
	Title          string           `json:"title" db:"title"`
	Excerpt        string           `json:"excerpt" db:"excerpt"`
	Content        string           `json:"content" db:"content"`
	CategoryID     int64            `json:"-" db:"category_id"`
	Category       *CategorySummary `json:"category" db:"-"`
	Subcategory    string           `json:"subcategory" db:"subcategory"`
	AuthorID       int64            `json:"-" db:"author_id"`
	Author         *WriterSummary   `json:"author" db:"-"`
	FeaturedImage  string           `json:"featuredImage" db:"featured_image"`
	Gallery        []map[string]any `json:"gallery" db:"gallery"`
	Tags           []string         `json:"tags" db:"tags"`
	Status         ArticleStatus    `json:"status" db:"status"`
	IsFeatured     bool             `json:"isFeatured" db:"is_featured"`
	IsHot          bool             `json:"isHot" db:"is_hot"`
	IsTrending     bool             `json:"isTrending" db:"is_trending"`
	IsBreaking     bool             `json:"isBreaking" db:"is_breaking"`
	PublishDate    string           `json:"publishDate" db:"publish_date"`
	PublishTime    string           `json:"publishTime" db:"publish_time"`
	SEOTitle       string           `json:"seoTitle" db:"seo_title"`
	SEODescription string           `json:"seoDescription" db:"seo_description"`
	SEOKeywords    string           `json:"seoKeywords" db:"seo_keywords"`
	ReadTime       int              `json:"readTime" db:"read_time"`
	Views          int              `json:"views" db:"views"`
	CreatedAt      time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time        `json:"updatedAt" db:"updated_at"`
}

// ArticleInput carries client-writable article fields; nil means "not provided"
type ArticleInput struct {
	Title          *string           `json:"title"`
	Excerpt        *string           `json:"excerpt"`
	Content        *string           `json:"content"`
	CategoryID     *int64            `json:"category"`
	Subcategory    *string           `json:"subcategory"`
	AuthorID       *int64            `json:"author"`
	FeaturedImage  *string           `json:"featuredImage"`
	Gallery        *[]map[string]any `json:"gallery"`
	Tags           *[]string         `json:"tags"`
	Status         *ArticleStatus    `json:"status"`
	IsFeatured     *bool             `json:"isFeatured"`
	IsHot          *bool             `json:"isHot"`
	IsTrending     *bool             `json:"isTrending"`
	IsBreaking     *bool             `json:"isBreaking"`
	PublishDate    *string           `json:"publishDate"`
	PublishTime    *string           `json:"publishTime"`
	SEOTitle       *string           `json:"seoTitle"`
	SEODescription *string           `json:"seoDescription"`
	SEOKeywords    *string           `json:"seoKeywords"`
}

// ApplyTo copies provided fields onto a
func (in *ArticleInput) ApplyTo(a *Article) {
	setString(&a.Title, in.Title)
	setString(&a.Excerpt, in.Excerpt)
	setString(&a.Content, in.Content)
	if in.CategoryID != nil {
		a.CategoryID = *in.CategoryID
	}
	setString(&a.Subcategory, in.Subcategory)
	if in.AuthorID != nil {
		a.AuthorID = *in.AuthorID
	}
	setString(&a.FeaturedImage, in.FeaturedImage)
	if in.Gallery != nil {
		a.Gallery = *in.Gallery
	}
	if in.Tags != nil {
		a.Tags = *in.Tags
	}
	if in.Status != nil {
		a.Status = *in.Status
	}
	setBool(&a.IsFeatured, in.IsFeatured)
	setBool(&a.IsHot, in.IsHot)
	setBool(&a.IsTrending, in.IsTrending)
	setBool(&a.IsBreaking, in.IsBreaking)
	setString(&a.PublishDate, in.PublishDate)
	setString(&a.PublishTime, in.PublishTime)
	setString(&a.SEOTitle, in.SEOTitle)
	setString(&a.SEODescription, in.SEODescription)
	setString(&a.SEOKeywords, in.SEOKeywords)
}

// ArticleFilter narrows article listings
type ArticleFilter struct {
	Status     ArticleStatus
	CategoryID int64
	AuthorID   int64
	Featured   *bool
	Search     string
	Page       Page
}

// ArticleStats counts articles by status
type ArticleStats struct {
	Total     int `json:"total"`
	Published int `json:"published"`
	Drafts    int `json:"drafts"`
	Scheduled int `json:"scheduled"`
}

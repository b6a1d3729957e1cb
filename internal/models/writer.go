package models

import (
	"time"
)

// Writer statuses
const (
	WriterActive   = "active"
	WriterInactive = "inactive"
)

// Writer is a journalist credited as the author of articles
type Writer struct {
	ID            int64             `json:"id" db:"id"`
	UserID        *int64            `json:"user,omitempty" db:"user_id"`
	Name          string            `json:"name" db:"name"`
	Email         string            `json:"email" db:"email"`
	Phone         string            `json:"phone" db:"phone"`
	Role          string            `json:"role" db:"role"`
	Department    string            `json:"department" db:"department"`
	Expertise     []string          `json:"expertise" db:"expertise"`
	Bio           string            `json:"bio" db:"bio"`
	Location      string            `json:"location" db:"location"`
	SocialLinks   map[string]string `json:"social_links" db:"social_links"`
	Avatar        string            `json:"avatar" db:"avatar"`
	JoinDate      time.Time         `json:"join_date" db:"join_date"`
	ArticlesCount int               `json:"articles_count" db:"articles_count"`
	Status        string            `json:"status" db:"status"`
}

// WriterInput carries client-writable writer fields; nil means "not provided"
type WriterInput struct {
	UserID      OptionalID         `json:"user"`
	Name        *string            `json:"name"`
	Email       *string            `json:"email"`
	Phone       *string            `json:"phone"`
	Role        *string            `json:"role"`
	Department  *string            `json:"department"`
	Expertise   *[]string          `json:"expertise"`
	Bio         *string            `json:"bio"`
	Location    *string            `json:"location"`
	SocialLinks *map[string]string `json:"social_links"`
	Avatar      *string            `json:"avatar"`
	Status      *string            `json:"status"`
}

// ApplyTo copies provided fields onto w
func (in *WriterInput) ApplyTo(w *Writer) {
	if in.UserID.Set {
		w.UserID = in.UserID.ID
	}
	setString(&w.Name, in.Name)
	setString(&w.Email, in.Email)
	setString(&w.Phone, in.Phone)
	setString(&w.Role, in.Role)
	setString(&w.Department, in.Department)
	if in.Expertise != nil {
		w.Expertise = *in.Expertise
	}
	setString(&w.Bio, in.Bio)
	setString(&w.Location, in.Location)
	if in.SocialLinks != nil {
		w.SocialLinks = *in.SocialLinks
	}
	setString(&w.Avatar, in.Avatar)
	setString(&w.Status, in.Status)
}

// WriterSummary is the author representation embedded in articles
type WriterSummary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

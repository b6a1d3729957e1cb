package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/newsdesk-api/internal/models"
)

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	colorRegex    = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
	usernameRegex = regexp.MustCompile(`^[\w.@+-]{1,150}$`)
)

// MinPasswordLength is the shortest accepted password
const MinPasswordLength = 8

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// ValidateUser validates a user about to be created with the given raw password
func ValidateUser(user *models.User, password string) []ValidationError {
	var errors []ValidationError

	if user.Username == "" {
		errors = append(errors, ValidationError{Field: "username", Message: "username is required"})
	} else if !usernameRegex.MatchString(user.Username) {
		errors = append(errors, ValidationError{
			Field:   "username",
			Message: "username may contain only letters, digits and @/./+/-/_",
			Value:   user.Username,
		})
	}

	if !models.ValidRoles[user.Role] {
		errors = append(errors, ValidationError{
			Field:   "role",
			Message: "invalid role, must be one of: admin, editor, viewer",
			Value:   user.Role,
		})
	}

	if len(password) < MinPasswordLength {
		errors = append(errors, ValidationError{
			Field:   "password",
			Message: fmt.Sprintf("password must be at least %d characters", MinPasswordLength),
		})
	}

	return errors
}

// ValidateWriter validates a writer record
func ValidateWriter(w *models.Writer) []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(w.Name) == "" {
		errors = append(errors, ValidationError{Field: "name", Message: "This field is required."})
	}

	if w.Email == "" {
		errors = append(errors, ValidationError{Field: "email", Message: "This field is required."})
	} else if !emailRegex.MatchString(w.Email) {
		errors = append(errors, ValidationError{Field: "email", Message: "Enter a valid email address.", Value: w.Email})
	}

	if strings.TrimSpace(w.Role) == "" {
		errors = append(errors, ValidationError{Field: "role", Message: "This field is required."})
	}
	if strings.TrimSpace(w.Department) == "" {
		errors = append(errors, ValidationError{Field: "department", Message: "This field is required."})
	}

	if w.Status != models.WriterActive && w.Status != models.WriterInactive {
		errors = append(errors, ValidationError{
			Field:   "status",
			Message: "invalid status, must be one of: active, inactive",
			Value:   w.Status,
		})
	}

	if w.Avatar != "" && !isValidURL(w.Avatar) {
		errors = append(errors, ValidationError{Field: "avatar", Message: "Enter a valid URL.", Value: w.Avatar})
	}

	return errors
}

// ValidateCategory validates a category record
func ValidateCategory(c *models.Category) []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(c.Name) == "" {
		errors = append(errors, ValidationError{Field: "name", Message: "This field is required."})
	}
	if strings.TrimSpace(c.NameEnglish) == "" {
		errors = append(errors, ValidationError{Field: "nameEnglish", Message: "This field is required."})
	}

	if !colorRegex.MatchString(c.Color) {
		errors = append(errors, ValidationError{Field: "color", Message: "color must be a hex value like #3B82F6", Value: c.Color})
	}

	seen := make(map[string]bool, len(c.Subcategories))
	for _, sub := range c.Subcategories {
		if strings.TrimSpace(sub) == "" {
			errors = append(errors, ValidationError{Field: "subcategories", Message: "subcategory names may not be blank"})
			break
		}
		if seen[sub] {
			errors = append(errors, ValidationError{Field: "subcategories", Message: "duplicate subcategory", Value: sub})
			break
		}
		seen[sub] = true
	}

	if c.Order < 0 {
		errors = append(errors, ValidationError{Field: "order", Message: "order must not be negative", Value: c.Order})
	}

	return errors
}

// ValidateArticle validates an article's own fields. Foreign keys are checked
// for presence only; existence and subcategory membership need the database.
func ValidateArticle(a *models.Article) []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(a.Title) == "" {
		errors = append(errors, ValidationError{Field: "title", Message: "Title is required."})
	}
	if strings.TrimSpace(a.Excerpt) == "" {
		errors = append(errors, ValidationError{Field: "excerpt", Message: "Excerpt is required."})
	}
	if strings.TrimSpace(a.Content) == "" {
		errors = append(errors, ValidationError{Field: "content", Message: "Content is required."})
	}
	if a.CategoryID <= 0 {
		errors = append(errors, ValidationError{Field: "category", Message: "Category is required."})
	}
	if a.AuthorID <= 0 {
		errors = append(errors, ValidationError{Field: "author", Message: "Author is required."})
	}

	if !models.ValidStatuses[a.Status] {
		errors = append(errors, ValidationError{
			Field:   "status",
			Message: "invalid status, must be one of: draft, published, scheduled",
			Value:   a.Status,
		})
	}

	if _, err := time.Parse(models.DateLayout, a.PublishDate); err != nil {
		errors = append(errors, ValidationError{Field: "publishDate", Message: "invalid date, expected YYYY-MM-DD", Value: a.PublishDate})
	}
	if _, err := ParseClock(a.PublishTime); err != nil {
		errors = append(errors, ValidationError{Field: "publishTime", Message: "invalid time, expected HH:MM[:SS]", Value: a.PublishTime})
	}

	if a.FeaturedImage != "" && !isValidURL(a.FeaturedImage) {
		errors = append(errors, ValidationError{Field: "featuredImage", Message: "Enter a valid URL.", Value: a.FeaturedImage})
	}

	return errors
}

// ValidateSubcategory checks that the article's subcategory belongs to its category
func ValidateSubcategory(a *models.Article, c *models.Category) *ValidationError {
	if a.Subcategory == "" || c.HasSubcategory(a.Subcategory) {
		return nil
	}
	return &ValidationError{
		Field:   "subcategory",
		Message: fmt.Sprintf("Subcategory '%s' is not valid for category '%s'.", a.Subcategory, c.Name),
		Value:   a.Subcategory,
	}
}

// ValidateVideo validates a video record
func ValidateVideo(v *models.Video) []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(v.Title) == "" {
		errors = append(errors, ValidationError{Field: "title", Message: "This field is required."})
	}

	if !models.ValidVideoTypes[v.VideoType] {
		errors = append(errors, ValidationError{
			Field:   "video_type",
			Message: "invalid video type, must be one of: news, broadcast, interview, documentary, other",
			Value:   v.VideoType,
		})
	}

	if !models.ValidPlatforms[v.Platform] {
		errors = append(errors, ValidationError{
			Field:   "platform",
			Message: "invalid platform, must be one of: youtube, facebook, custom",
			Value:   v.Platform,
		})
	} else if v.Platform.RequiresURL() && v.PlatformURL == "" {
		errors = append(errors, ValidationError{Field: "platform_url", Message: "Platform URL is required for YouTube/Facebook videos."})
	}
	if v.PlatformURL != "" && !isValidURL(v.PlatformURL) {
		errors = append(errors, ValidationError{Field: "platform_url", Message: "Enter a valid URL.", Value: v.PlatformURL})
	}

	if !models.ValidVideoStatuses[v.Status] {
		errors = append(errors, ValidationError{
			Field:   "status",
			Message: "invalid status, must be one of: draft, published, live, archived",
			Value:   v.Status,
		})
	}

	if v.IsLive && v.LiveStartTime == nil {
		errors = append(errors, ValidationError{Field: "live_start_time", Message: "Live start time is required for live videos."})
	}
	if v.Status == models.VideoLive && !v.IsLive {
		errors = append(errors, ValidationError{Field: "status", Message: "Use the live endpoint to start a live stream."})
	}
	if v.LiveStartTime != nil && v.LiveEndTime != nil && v.LiveEndTime.Before(*v.LiveStartTime) {
		errors = append(errors, ValidationError{Field: "live_end_time", Message: "Live end time must be after the start time."})
	}

	return errors
}

// ValidateVideoCategory validates a video category record
func ValidateVideoCategory(c *models.VideoCategory) []ValidationError {
	var errors []ValidationError
	if strings.TrimSpace(c.Name) == "" {
		errors = append(errors, ValidationError{Field: "name", Message: "This field is required."})
	}
	return errors
}

// ParseClock parses HH:MM or HH:MM:SS
func ParseClock(s string) (time.Time, error) {
	if t, err := time.Parse(models.TimeLayout, s); err == nil {
		return t, nil
	}
	return time.Parse("15:04", s)
}

// isValidURL accepts absolute http(s) URLs and site-relative paths such as /media/uploads/x.png
func isValidURL(s string) bool {
	if strings.HasPrefix(s, "/") && !strings.HasPrefix(s, "//") {
		return true
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

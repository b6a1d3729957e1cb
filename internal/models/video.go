package models

import (
	"errors"
	"fmt"
	"time"
)

// VideoStatus is the publication state of a video
type VideoStatus string

const (
	VideoDraft     VideoStatus = "draft"
	VideoPublished VideoStatus = "published"
	VideoLive      VideoStatus = "live"
	VideoArchived  VideoStatus = "archived"
)

// ValidVideoStatuses defines allowed video statuses
var ValidVideoStatuses = map[VideoStatus]bool{
	VideoDraft:     true,
	VideoPublished: true,
	VideoLive:      true,
	VideoArchived:  true,
}

// Platform is where a video is hosted
type Platform string

const (
	PlatformYouTube  Platform = "youtube"
	PlatformFacebook Platform = "facebook"
	PlatformCustom   Platform = "custom"
)

// ValidPlatforms defines allowed video platforms
var ValidPlatforms = map[Platform]bool{
	PlatformYouTube:  true,
	PlatformFacebook: true,
	PlatformCustom:   true,
}

// RequiresURL reports whether videos on this platform must carry a platform URL
func (p Platform) RequiresURL() bool {
	return p == PlatformYouTube || p == PlatformFacebook
}

// ValidVideoTypes defines allowed video types
var ValidVideoTypes = map[string]bool{
	"news":        true,
	"broadcast":   true,
	"interview":   true,
	"documentary": true,
	"other":       true,
}

// ErrInvalidTransition is returned when a live transition is not allowed from the current state
var ErrInvalidTransition = errors.New("invalid live transition")

// VideoCategory is an optional grouping of videos
type VideoCategory struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	IsActive    bool      `json:"isActive" db:"is_active"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// Video is an uploaded or streamed video
type Video struct {
	ID            int64       `json:"id" db:"id"`
	Title         string      `json:"title" db:"title"`
	Description   string      `json:"description" db:"description"`
	VideoType     string      `json:"video_type" db:"video_type"`
	VideoFile     string      `json:"video_file" db:"video_file"`
	Thumbnail     string      `json:"thumbnail" db:"thumbnail"`
	Platform      Platform    `json:"platform" db:"platform"`
	PlatformURL   string      `json:"platform_url" db:"platform_url"`
	Status        VideoStatus `json:"status" db:"status"`
	IsLive        bool        `json:"is_live" db:"is_live"`
	LiveStartTime *time.Time  `json:"live_start_time" db:"live_start_time"`
	LiveEndTime   *time.Time  `json:"live_end_time" db:"live_end_time"`
	CategoryID    *int64      `json:"category" db:"category_id"`
	UploaderID    int64       `json:"uploader" db:"uploader_id"`
	Views         int         `json:"views" db:"views"`
	CreatedAt     time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time   `json:"updatedAt" db:"updated_at"`
}

// ExpireIfEnded archives a live video whose end time has passed.
// It reports whether the video changed.
func (v *Video) ExpireIfEnded(now time.Time) bool {
	if v.IsLive && v.LiveEndTime != nil && v.LiveEndTime.Before(now) {
		v.IsLive = false
		v.Status = VideoArchived
		return true
	}
	return false
}

// GoLive starts a live stream. Only draft and published videos can go live.
func (v *Video) GoLive(now time.Time) error {
	if v.Status != VideoDraft && v.Status != VideoPublished {
		return fmt.Errorf("%w: a %s video cannot go live", ErrInvalidTransition, v.Status)
	}
	start := now
	v.IsLive = true
	v.LiveStartTime = &start
	v.Status = VideoLive
	// a stale planned end would archive the stream on the next read
	if v.LiveEndTime != nil && !v.LiveEndTime.After(now) {
		v.LiveEndTime = nil
	}
	return nil
}

// EndLive stops a live stream and archives the video
func (v *Video) EndLive(now time.Time) error {
	if !v.IsLive {
		return fmt.Errorf("%w: video is not live", ErrInvalidTransition)
	}
	end := now
	v.IsLive = false
	v.LiveEndTime = &end
	v.Status = VideoArchived
	return nil
}

// VideoInput carries client-writable video fields
type VideoInput struct {
	Title         *string      `json:"title"`
	Description   *string      `json:"description"`
	VideoType     *string      `json:"video_type"`
	VideoFile     *string      `json:"video_file"`
	Thumbnail     *string      `json:"thumbnail"`
	Platform      *Platform    `json:"platform"`
	PlatformURL   *string      `json:"platform_url"`
	Status        *VideoStatus `json:"status"`
	IsLive        *bool        `json:"is_live"`
	LiveStartTime *time.Time   `json:"live_start_time"`
	LiveEndTime   *time.Time   `json:"live_end_time"`
	CategoryID    OptionalID   `json:"category"`
}

// ApplyTo copies provided non-live fields onto v; live state is handled by the caller
func (in *VideoInput) ApplyTo(v *Video) {
	setString(&v.Title, in.Title)
	setString(&v.Description, in.Description)
	setString(&v.VideoType, in.VideoType)
	setString(&v.VideoFile, in.VideoFile)
	setString(&v.Thumbnail, in.Thumbnail)
	if in.Platform != nil {
		v.Platform = *in.Platform
	}
	setString(&v.PlatformURL, in.PlatformURL)
	if in.Status != nil {
		v.Status = *in.Status
	}
	if in.LiveEndTime != nil {
		v.LiveEndTime = in.LiveEndTime
	}
	if in.CategoryID.Set {
		v.CategoryID = in.CategoryID.ID
	}
}

// VideoCategoryInput carries client-writable video category fields
type VideoCategoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    *bool  `json:"isActive"`
}

// VideoFilter narrows video listings
type VideoFilter struct {
	Status     VideoStatus
	CategoryID int64
	IsLive     *bool
	Page       Page
}

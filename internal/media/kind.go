package media

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Kind is the class of media an upload endpoint accepts
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

var (
	// ErrWrongType is returned when the declared or detected type is not of the expected kind
	ErrWrongType = errors.New("unsupported file type")
	// ErrTooLarge is returned when an upload exceeds the size cap of its kind
	ErrTooLarge = errors.New("file too large")
)

// Dir is the storage directory of the kind
func (k Kind) Dir() string {
	if k == KindVideo {
		return "videos"
	}
	return "uploads"
}

// Label names the kind in user-facing messages
func (k Kind) Label() string {
	if k == KindVideo {
		return "Video"
	}
	return "Image"
}

// CheckDeclared validates the client-declared Content-Type
func (k Kind) CheckDeclared(contentType string) error {
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), string(k)+"/") {
		return fmt.Errorf("%w: expected %s/*, got %q", ErrWrongType, k, contentType)
	}
	return nil
}

// CheckSize validates size against limit
func (k Kind) CheckSize(size, limit int64) error {
	if size > limit {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrTooLarge, size, limit)
	}
	return nil
}

// CheckContent sniffs the leading bytes of the file. Content that is recognized
// as a different media class is rejected; unrecognized binary is allowed
// because many containers are not in the detector's table.
func (k Kind) CheckContent(head []byte) (string, error) {
	detected := mimetype.Detect(head)
	for m := detected; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), string(k)+"/") {
			return detected.String(), nil
		}
	}
	if detected.Is("application/octet-stream") {
		return detected.String(), nil
	}
	return detected.String(), fmt.Errorf("%w: content looks like %s", ErrWrongType, detected.String())
}

package media

import (
	"context"
	"errors"
	"io"
)

// ErrExists is returned by a backend when the target name is already taken
var ErrExists = errors.New("object already exists")

// Storage persists uploaded files. Save never overwrites: when name is taken
// in dir the object is stored under a suffixed name. It returns the public URL.
type Storage interface {
	Save(ctx context.Context, dir, name string, src io.ReadSeeker, contentType string) (string, error)
}

// maxNameAttempts bounds collision retries
const maxNameAttempts = 5

// saveUnique calls put with name and then suffixed names until one is free
func saveUnique(name string, src io.ReadSeeker, put func(name string) (string, error)) (string, error) {
	candidate := name
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		if attempt > 0 {
			if _, err := src.Seek(0, io.SeekStart); err != nil {
				return "", err
			}
			candidate = WithSuffix(name)
		}
		url, err := put(candidate)
		if errors.Is(err, ErrExists) {
			continue
		}
		return url, err
	}
	return "", ErrExists
}

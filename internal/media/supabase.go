package media

import (
	"context"
	"fmt"
	"io"
	"strings"

	storage "github.com/supabase-community/storage-go"
)

// SupabaseStorage uploads files to a Supabase Storage bucket
type SupabaseStorage struct {
	client  *storage.Client
	baseURL string
	bucket  string
}

// NewSupabaseStorage creates a Supabase Storage backend
func NewSupabaseStorage(supabaseURL, key, bucket string) *SupabaseStorage {
	baseURL := strings.TrimRight(supabaseURL, "/")
	return &SupabaseStorage{
		client:  storage.NewClient(baseURL+"/storage/v1", key, nil),
		baseURL: baseURL,
		bucket:  bucket,
	}
}

// Save implements Storage. Uploads never upsert, so a taken name comes back
// as a duplicate error and is retried with a suffix.
func (s *SupabaseStorage) Save(ctx context.Context, dir, name string, src io.ReadSeeker, contentType string) (string, error) {
	upsert := false
	options := storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	}

	return saveUnique(name, src, func(candidate string) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		objectPath := dir + "/" + candidate
		if _, err := s.client.UploadFile(s.bucket, objectPath, src, options); err != nil {
			if isDuplicate(err) {
				return "", ErrExists
			}
			return "", fmt.Errorf("supabase upload failed: %w", err)
		}

		return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, objectPath), nil
	})
}

func isDuplicate(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "already exists")
}

package service_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"
	"testing"

	"github.com/newsdesk-api/internal/media"
	"github.com/newsdesk-api/internal/mocks"
	"github.com/newsdesk-api/internal/service"
	"github.com/rs/zerolog"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")

func fileHeader(t *testing.T, filename, contentType string, data []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		t.Fatalf("CreatePart failed: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	mw.Close()

	form, err := multipart.NewReader(&body, mw.Boundary()).ReadForm(64 << 20)
	if err != nil {
		t.Fatalf("ReadForm failed: %v", err)
	}
	t.Cleanup(func() { form.RemoveAll() })
	return form.File["file"][0]
}

func png(size int) []byte {
	data := make([]byte, size)
	copy(data, pngHeader)
	return data
}

func TestUploadService_ImageRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name        string
		filename    string
		contentType string
		data        []byte
		wantErr     string
	}{
		{"five megabytes accepted", "photo.png", "image/png", png(5 << 20), ""},
		{"six megabytes rejected", "photo.png", "image/png", png(6 << 20), "File size exceeds 5MB limit."},
		{"declared non-image", "notes.txt", "text/plain", []byte("hello"), "Only image files are allowed."},
		{"declared non-image and large", "big.bin", "application/octet-stream", png(6 << 20), "Only image files are allowed."},
		{"pdf posing as image", "scan.png", "image/png", []byte("%PDF-1.4\n%âãÏÓ\n1 0 obj\n<<>>\nendobj\n"), "Only image files are allowed."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url, err := env.svc.Upload.Upload(ctx, media.KindImage, fileHeader(t, tt.filename, tt.contentType, tt.data))
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Expected success, got %v", err)
				}
				if !strings.HasPrefix(url, "/media/uploads/") {
					t.Errorf("Unexpected url %s", url)
				}
				return
			}
			ve := validationError(t, err)
			if ve.Detail != tt.wantErr {
				t.Errorf("Expected %q, got %q", tt.wantErr, ve.Detail)
			}
		})
	}
}

func TestUploadService_NoFile(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.Upload.Upload(context.Background(), media.KindImage, nil)
	ve := validationError(t, err)
	if ve.Detail != "No file provided." {
		t.Errorf("Unexpected detail %q", ve.Detail)
	}
}

func TestUploadService_SanitizesAndNeverOverwrites(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.svc.Upload.Upload(ctx, media.KindImage, fileHeader(t, "../my photo (1).png", "image/png", png(64)))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if first != "/media/uploads/my_photo_1_.png" {
		t.Errorf("Unexpected url %s", first)
	}

	second, err := env.svc.Upload.Upload(ctx, media.KindImage, fileHeader(t, "../my photo (1).png", "image/png", png(64)))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if second == first {
		t.Error("Expected second upload to get a new name")
	}
	if len(env.storage.Objects) != 2 {
		t.Errorf("Expected 2 stored objects, got %d", len(env.storage.Objects))
	}
}

func TestUploadService_Video(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	mp4 := append([]byte("\x00\x00\x00\x18ftypmp42\x00\x00\x00\x00mp42isom"), make([]byte, 1024)...)

	url, err := env.svc.Upload.Upload(ctx, media.KindVideo, fileHeader(t, "clip.mp4", "video/mp4", mp4))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if url != "/media/videos/clip.mp4" {
		t.Errorf("Unexpected url %s", url)
	}

	_, err = env.svc.Upload.Upload(ctx, media.KindVideo, fileHeader(t, "photo.png", "image/png", png(64)))
	ve := validationError(t, err)
	if ve.Detail != "Only video files are allowed." {
		t.Errorf("Unexpected detail %q", ve.Detail)
	}
}

func TestUploadService_StorageFailure(t *testing.T) {
	env := newTestEnv(t)
	env.storage.SaveErr = errors.New("bucket unavailable")

	_, err := env.svc.Upload.Upload(context.Background(), media.KindImage, fileHeader(t, "a.png", "image/png", png(64)))
	if err == nil || !errors.Is(err, env.storage.SaveErr) {
		t.Errorf("Expected storage error, got %v", err)
	}
}

func TestUploadService_VideoSizeMessage(t *testing.T) {
	cfg := testConfig()
	cfg.Media.VideoMaxSize = 1 << 20
	svc := service.NewServices(mocks.NewStore().Repositories(), cfg, service.Deps{Storage: mocks.NewMockStorage()}, zerolog.Nop())
	mp4 := append([]byte("\x00\x00\x00\x18ftypmp42\x00\x00\x00\x00mp42isom"), make([]byte, 2<<20)...)

	_, err := svc.Upload.Upload(context.Background(), media.KindVideo, fileHeader(t, "clip.mp4", "video/mp4", mp4))
	ve := validationError(t, err)
	if ve.Detail != "Video file size exceeds 1MB limit." {
		t.Errorf("Unexpected detail %q", ve.Detail)
	}
}

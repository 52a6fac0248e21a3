package utils

import (
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"github.com/playtube/playtube-backend/config"
)

// MediaStorage is the media-host boundary: videos, thumbnails, avatars and
// cover images live in a GCS bucket and are referenced by public URL plus
// object name (the object name is what delete needs later).
type MediaStorage struct {
	client *storage.Client
	bucket string
}

func NewMediaStorage(ctx context.Context, cfg config.GCSConfig) (*MediaStorage, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithAuthCredentialsFile(option.ServiceAccount, cfg.CredentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage.NewClient: %w", err)
	}
	return &MediaStorage{client: client, bucket: cfg.Bucket}, nil
}

func (m *MediaStorage) Close() error {
	return m.client.Close()
}

type UploadResult struct {
	PublicURL  string
	ObjectName string
	MimeType   string
	SizeBytes  int64
}

// Upload stores one multipart file under folder/ with a unique object name
// and returns its public URL.
func (m *MediaStorage) Upload(ctx context.Context, folder string, fh *multipart.FileHeader) (*UploadResult, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if ext == "" {
		ext = ".bin"
	}

	file, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	ct := fh.Header.Get("Content-Type")
	if ct == "" {
		ct = mime.TypeByExtension(ext)
	}
	if ct == "" {
		ct = "application/octet-stream"
	}

	objectName := fmt.Sprintf("%s/%d-%s%s", folder, time.Now().UTC().Unix(), uuid.New().String(), ext)

	w := m.client.Bucket(m.bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = ct
	w.CacheControl = "no-cache"

	if _, err := io.Copy(w, file); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("upload copy: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("upload close: %w", err)
	}

	return &UploadResult{
		PublicURL:  fmt.Sprintf("https://storage.googleapis.com/%s/%s", m.bucket, objectName),
		ObjectName: objectName,
		MimeType:   ct,
		SizeBytes:  fh.Size,
	}, nil
}

// Delete removes stored objects, returning the first error after attempting
// all of them. Empty names are skipped so callers can pass optional objects.
func (m *MediaStorage) Delete(ctx context.Context, objectNames ...string) error {
	var firstErr error
	for _, name := range objectNames {
		if name == "" {
			continue
		}
		if err := m.client.Bucket(m.bucket).Object(name).Delete(ctx); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("delete %s: %w", name, err)
		}
	}
	return firstErr
}

// FileValidator checks multipart uploads by size, extension and sniffed MIME
// type before anything is sent to the media host.
type FileValidator struct {
	allowedExt map[string]bool
	mimePrefix string
	maxSize    int64
}

func NewImageValidator(maxSizeMB int) *FileValidator {
	return &FileValidator{
		allowedExt: map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true},
		mimePrefix: "image/",
		maxSize:    int64(maxSizeMB) << 20,
	}
}

func NewVideoValidator(maxSizeMB int) *FileValidator {
	return &FileValidator{
		allowedExt: map[string]bool{".mp4": true, ".webm": true, ".mov": true, ".mkv": true},
		mimePrefix: "video/",
		maxSize:    int64(maxSizeMB) << 20,
	}
}

func (v *FileValidator) Validate(fh *multipart.FileHeader) error {
	if fh.Size > v.maxSize {
		return fmt.Errorf("file too large (max %d MB)", v.maxSize>>20)
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !v.allowedExt[ext] {
		return fmt.Errorf("invalid file extension %q", ext)
	}

	file, err := fh.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && n == 0 {
		return fmt.Errorf("failed to read file header")
	}

	detected := strings.ToLower(http.DetectContentType(buffer[:n]))
	if !strings.HasPrefix(detected, v.mimePrefix) {
		return fmt.Errorf("invalid file type %q", detected)
	}
	return nil
}

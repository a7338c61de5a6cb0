package uploads

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/gatherhall/community-backend/pkg/config"
	pkgerrors "github.com/gatherhall/community-backend/pkg/errors"
	"github.com/gatherhall/community-backend/pkg/logger"
)

const publicPathPrefix = "/uploads"

// DiskStore persists uploaded images on the local filesystem and hands out
// their public URLs.
type DiskStore struct {
	dir      string
	maxBytes int64
	logg     *logger.Logger
}

// SaveInput describes one inbound file.
type SaveInput struct {
	EventSlug string
	FileName  string
	MimeType  string
	Size      int64
	Content   io.Reader
}

// SavedFile reports where the accepted file landed.
type SavedFile struct {
	FileName string
	URL      string
}

// NewDiskStore prepares the upload directory.
func NewDiskStore(cfg config.UploadsConfig, logg *logger.Logger) (*DiskStore, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("upload dir is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %q: %w", cfg.Dir, err)
	}
	return &DiskStore{
		dir:      cfg.Dir,
		maxBytes: cfg.MaxUploadBytes(),
		logg:     logg,
	}, nil
}

// Save validates and writes the file. Only image/* content within the size
// ceiling is accepted. The stored name is derived from the event slug, the
// sanitized original name, and a timestamp so concurrent uploads of the
// same file cannot collide.
func (d *DiskStore) Save(ctx context.Context, input SaveInput) (*SavedFile, error) {
	if input.EventSlug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event slug is required")
	}
	if input.Content == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file content is required")
	}
	if input.Size <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file size must be positive")
	}
	if input.Size > d.maxBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("file exceeds the %d byte upload limit", d.maxBytes))
	}

	mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(input.MimeType))
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "only image uploads are accepted")
	}

	fileName := buildFileName(input.EventSlug, input.FileName, time.Now().UTC())
	fullPath := filepath.Join(d.dir, fileName)

	out, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create upload file")
	}
	defer out.Close()

	written, err := io.Copy(out, io.LimitReader(input.Content, d.maxBytes+1))
	if err != nil {
		_ = os.Remove(fullPath)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write upload file")
	}
	if written > d.maxBytes {
		_ = os.Remove(fullPath)
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("file exceeds the %d byte upload limit", d.maxBytes))
	}

	return &SavedFile{
		FileName: fileName,
		URL:      publicPathPrefix + "/" + fileName,
	}, nil
}

// Remove deletes a stored file. A missing file is not an error; gallery
// cleanup is best-effort.
func (d *DiskStore) Remove(ctx context.Context, fileName string) error {
	clean := path.Base(strings.TrimSpace(fileName))
	if clean == "" || clean == "." || clean == "/" {
		return nil
	}
	err := os.Remove(filepath.Join(d.dir, clean))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove upload %q: %w", clean, err)
	}
	return nil
}

func buildFileName(slug, original string, now time.Time) string {
	ext := strings.ToLower(path.Ext(original))
	base := strings.TrimSuffix(path.Base(original), path.Ext(original))
	clean := sanitizeFileName(base)
	if clean == "" {
		clean = "image"
	}
	return fmt.Sprintf("events_%s_%s_%d%s", slug, clean, now.UnixNano(), ext)
}

func sanitizeFileName(name string) string {
	if name == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r == '/' || r == '\\' || unicode.IsControl(r):
			continue
		case unicode.IsSpace(r):
			b.WriteRune('-')
		default:
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return strings.Trim(b.String(), "-_.")
}

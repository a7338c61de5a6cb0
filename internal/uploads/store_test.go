package uploads

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gatherhall/community-backend/pkg/config"
	pkgerrors "github.com/gatherhall/community-backend/pkg/errors"
	"github.com/gatherhall/community-backend/pkg/logger"
)

func TestNewDiskStoreCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "uploads")
	_, err := NewDiskStore(config.UploadsConfig{Dir: dir, MaxUploadMB: 1}, testLogger())
	if err != nil {
		t.Fatalf("new disk store: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Fatalf("expected upload dir created, got %v", err)
	}
}

func TestSaveWritesFileAndURL(t *testing.T) {
	store := newTestStore(t)

	saved, err := store.Save(context.Background(), SaveInput{
		EventSlug: "summer-picnic",
		FileName:  "Group Photo.PNG",
		MimeType:  "image/png",
		Size:      9,
		Content:   strings.NewReader("png-bytes"),
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.HasPrefix(saved.FileName, "events_summer-picnic_group-photo_") {
		t.Fatalf("unexpected stored name %q", saved.FileName)
	}
	if !strings.HasSuffix(saved.FileName, ".png") {
		t.Fatalf("expected lowered extension, got %q", saved.FileName)
	}
	if saved.URL != "/uploads/"+saved.FileName {
		t.Fatalf("unexpected url %q", saved.URL)
	}
	content, err := os.ReadFile(filepath.Join(store.dir, saved.FileName))
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if string(content) != "png-bytes" {
		t.Fatalf("unexpected stored content %q", content)
	}
}

func TestSaveRejectsNonImage(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Save(context.Background(), SaveInput{
		EventSlug: "summer-picnic",
		FileName:  "report.pdf",
		MimeType:  "application/pdf",
		Size:      4,
		Content:   strings.NewReader("%PDF"),
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSaveRejectsDeclaredOversize(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Save(context.Background(), SaveInput{
		EventSlug: "summer-picnic",
		FileName:  "big.png",
		MimeType:  "image/png",
		Size:      store.maxBytes + 1,
		Content:   strings.NewReader("x"),
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSaveRejectsActualOversizeAndCleansUp(t *testing.T) {
	store := newTestStore(t)

	// Declared size lies; the write itself trips the ceiling.
	oversized := strings.Repeat("a", int(store.maxBytes)+10)
	_, err := store.Save(context.Background(), SaveInput{
		EventSlug: "summer-picnic",
		FileName:  "liar.png",
		MimeType:  "image/png",
		Size:      16,
		Content:   strings.NewReader(oversized),
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	entries, err := os.ReadDir(store.dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected partial file removed, found %d entries", len(entries))
	}
}

func TestSaveRequiresEventSlug(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Save(context.Background(), SaveInput{
		FileName: "x.png",
		MimeType: "image/png",
		Size:     1,
		Content:  strings.NewReader("x"),
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRemoveMissingFileIsNoError(t *testing.T) {
	store := newTestStore(t)

	if err := store.Remove(context.Background(), "never-existed.png"); err != nil {
		t.Fatalf("expected missing file tolerated, got %v", err)
	}
}

func TestRemoveStripsPathTraversal(t *testing.T) {
	store := newTestStore(t)
	outside := filepath.Join(filepath.Dir(store.dir), "outside.txt")
	if err := os.WriteFile(outside, []byte("keep"), 0o644); err != nil {
		t.Fatalf("seed outside file: %v", err)
	}

	if err := store.Remove(context.Background(), "../outside.txt"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := os.Stat(outside); err != nil {
		t.Fatal("expected file outside the upload dir untouched")
	}
}

func TestRemoveDeletesStoredFile(t *testing.T) {
	store := newTestStore(t)
	name := "events_slug_x_1.png"
	if err := os.WriteFile(filepath.Join(store.dir, name), []byte("x"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	if err := store.Remove(context.Background(), name); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := os.Stat(filepath.Join(store.dir, name)); !os.IsNotExist(err) {
		t.Fatalf("expected file deleted, got %v", err)
	}
}

func newTestStore(t *testing.T) *DiskStore {
	t.Helper()
	store, err := NewDiskStore(config.UploadsConfig{Dir: filepath.Join(t.TempDir(), "uploads"), MaxUploadMB: 1}, testLogger())
	if err != nil {
		t.Fatalf("new disk store: %v", err)
	}
	return store
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

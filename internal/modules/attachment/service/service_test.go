package service

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"strings"
	"sync"
	"testing"
	"time"

	"anoa.com/skorprestasi/internal/entity"
	"anoa.com/skorprestasi/pkg/storage"
	"github.com/google/uuid"
)

// fakeStorage records uploads and hands back predictable URLs.
type fakeStorage struct {
	mu       sync.Mutex
	uploads  []string
	deleted  []string
	failAll  bool
	relative bool
}

func (f *fakeStorage) UploadFile(ctx context.Context, r io.Reader, folder, fileName, fileType string) (*storage.UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return nil, io.ErrUnexpectedEOF
	}
	f.uploads = append(f.uploads, fileName)
	fileURL := "https://cdn.example.com/" + fileName
	if f.relative {
		fileURL = "uploads/" + fileName
	}
	return &storage.UploadResult{
		FileName:   fileName,
		FileURL:    fileURL,
		FileType:   fileType,
		UploadedAt: time.Now(),
	}, nil
}

func (f *fakeStorage) DeleteFile(ctx context.Context, fileURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, fileURL)
	return nil
}

type fakeRepo struct {
	mu      sync.Mutex
	created []*entity.Attachment
	orphans []entity.Attachment
	deleted []uint
}

func (f *fakeRepo) Create(ctx context.Context, a *entity.Attachment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a.ID = uint(len(f.created) + 1)
	f.created = append(f.created, a)
	return nil
}

func (f *fakeRepo) FindByIDs(ctx context.Context, ids []uint, userID uuid.UUID) ([]entity.Attachment, error) {
	return nil, nil
}

func (f *fakeRepo) AssignToAchievement(ctx context.Context, ids []uint, achievementID uuid.UUID, userID uuid.UUID) error {
	return nil
}

func (f *fakeRepo) UnassignOthers(ctx context.Context, achievementID uuid.UUID, keepIDs []uint) error {
	return nil
}

func (f *fakeRepo) FindOrphans(ctx context.Context, cutoff time.Time) ([]entity.Attachment, error) {
	return f.orphans, nil
}

func (f *fakeRepo) Delete(ctx context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

// buildFileHeaders assembles real multipart file headers from in-memory
// content.
func buildFileHeaders(t *testing.T, files map[string][]byte) []*multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for name, content := range files {
		part, err := writer.CreateFormFile("files", name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write(content); err != nil {
			t.Fatal(err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatal(err)
	}

	reader := multipart.NewReader(&buf, writer.Boundary())
	form, err := reader.ReadForm(32 << 20)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { form.RemoveAll() })

	return form.File["files"]
}

var pdfContent = []byte("%PDF-1.4\n%fake document body")
var pngContent = append([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, bytes.Repeat([]byte{0}, 64)...)

func TestUploadAttachments(t *testing.T) {
	store := &fakeStorage{}
	repo := &fakeRepo{}
	svc := NewAttachmentService(repo, store, "")

	headers := buildFileHeaders(t, map[string][]byte{
		"sertifikat.pdf": pdfContent,
		"foto.png":       pngContent,
	})

	userID := uuid.New()
	results, err := svc.UploadAttachments(context.Background(), userID, headers)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	for _, res := range results {
		if res.ID == 0 {
			t.Error("attachment was not persisted")
		}
		if !strings.HasPrefix(res.FileURL, "https://cdn.example.com/") {
			t.Errorf("unexpected url %q", res.FileURL)
		}
	}
	if len(repo.created) != 2 {
		t.Errorf("created = %d rows, want 2", len(repo.created))
	}
	for _, a := range repo.created {
		if a.UserID != userID {
			t.Errorf("attachment owner = %s, want %s", a.UserID, userID)
		}
	}
}

func TestUploadAttachmentsRejectsDisallowedType(t *testing.T) {
	svc := NewAttachmentService(&fakeRepo{}, &fakeStorage{}, "")

	headers := buildFileHeaders(t, map[string][]byte{
		"malware.exe": {0x4D, 0x5A, 0x90, 0x00, 0x03},
	})

	if _, err := svc.UploadAttachments(context.Background(), uuid.New(), headers); err == nil {
		t.Fatal("expected rejection of non-allow-listed content type")
	}
}

// Content sniffing, not the file name, decides admissibility.
func TestUploadAttachmentsSniffsContent(t *testing.T) {
	svc := NewAttachmentService(&fakeRepo{}, &fakeStorage{}, "")

	headers := buildFileHeaders(t, map[string][]byte{
		"harmless.pdf": []byte("<html><script>alert(1)</script></html>"),
	})

	if _, err := svc.UploadAttachments(context.Background(), uuid.New(), headers); err == nil {
		t.Fatal("expected rejection: html content behind a pdf name")
	}
}

func TestUploadAttachmentsEnforcesCountCap(t *testing.T) {
	svc := NewAttachmentService(&fakeRepo{}, &fakeStorage{}, "")

	files := make(map[string][]byte, maxFilesPerRequest+1)
	for i := 0; i <= maxFilesPerRequest; i++ {
		files[string(rune('a'+i))+".pdf"] = pdfContent
	}
	headers := buildFileHeaders(t, files)

	if _, err := svc.UploadAttachments(context.Background(), uuid.New(), headers); err == nil {
		t.Fatalf("expected rejection of %d files", len(headers))
	}
}

func TestUploadAttachmentsEmptyBatch(t *testing.T) {
	svc := NewAttachmentService(&fakeRepo{}, &fakeStorage{}, "")
	if _, err := svc.UploadAttachments(context.Background(), uuid.New(), nil); err == nil {
		t.Fatal("expected error for empty batch")
	}
}

// Responses carry a resolvable URL while the row keeps whatever the storage
// backend returned.
func TestUploadAttachmentsResolvesRelativeURL(t *testing.T) {
	store := &fakeStorage{relative: true}
	repo := &fakeRepo{}
	svc := NewAttachmentService(repo, store, "http://localhost:8080")

	headers := buildFileHeaders(t, map[string][]byte{
		"sertifikat.pdf": pdfContent,
	})

	results, err := svc.UploadAttachments(context.Background(), uuid.New(), headers)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if !strings.HasPrefix(results[0].FileURL, "http://localhost:8080/uploads/") {
		t.Errorf("response url = %q, want it resolved against the base url", results[0].FileURL)
	}
	if len(repo.created) != 1 {
		t.Fatalf("created = %d rows, want 1", len(repo.created))
	}
	if strings.HasPrefix(repo.created[0].FileURL, "http://") {
		t.Errorf("stored url = %q, want the raw storage path", repo.created[0].FileURL)
	}
}

func TestCleanupOrphanAttachments(t *testing.T) {
	store := &fakeStorage{}
	repo := &fakeRepo{
		orphans: []entity.Attachment{
			{ID: 7, FileURL: "https://cdn.example.com/a.pdf"},
			{ID: 9, FileURL: "https://cdn.example.com/b.png"},
		},
	}
	svc := NewAttachmentService(repo, store, "")

	if err := svc.CleanupOrphanAttachments(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(store.deleted) != 2 {
		t.Errorf("storage deletes = %d, want 2", len(store.deleted))
	}
	if len(repo.deleted) != 2 {
		t.Errorf("db deletes = %d, want 2", len(repo.deleted))
	}
}

package service

import (
	"context"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"time"

	"anoa.com/skorprestasi/internal/entity"
	"anoa.com/skorprestasi/internal/modules/attachment/dto"
	"anoa.com/skorprestasi/internal/modules/attachment/repository"
	"anoa.com/skorprestasi/pkg/apperror"
	"anoa.com/skorprestasi/pkg/storage"
	"github.com/google/uuid"
)

const (
	maxFileSize        = 10 << 20 // 10 MB
	maxFilesPerRequest = 10
	orphanMaxAge       = 24 * time.Hour
)

// allowedTypes is the upload allow-list. Types are checked against sniffed
// content, not the client-declared header.
var allowedTypes = map[string]struct{}{
	"application/pdf": {},
	"image/jpeg":      {},
	"image/png":       {},
	"image/webp":      {},
}

type AttachmentService interface {
	UploadAttachments(ctx context.Context, userID uuid.UUID, files []*multipart.FileHeader) ([]dto.UploadAttachmentResponse, error)
	CleanupOrphanAttachments(ctx context.Context) error
}

type attachmentService struct {
	repo        repository.AttachmentRepository
	fileStorage storage.FileStorage
	// baseURL resolves relative stored URLs in responses; absolute URLs pass
	// through unchanged.
	baseURL string
}

func NewAttachmentService(repo repository.AttachmentRepository, fileStorage storage.FileStorage, baseURL string) AttachmentService {
	return &attachmentService{
		repo:        repo,
		fileStorage: fileStorage,
		baseURL:     baseURL,
	}
}

// UploadAttachments validates the whole batch before any upload starts, then
// uploads the files concurrently. A failed upload errors the call; files that
// did get through stay unlinked and are reaped by the orphan cleanup.
func (s *attachmentService) UploadAttachments(ctx context.Context, userID uuid.UUID, files []*multipart.FileHeader) ([]dto.UploadAttachmentResponse, error) {
	if len(files) == 0 {
		return nil, apperror.New(400, "tidak ada file yang diunggah", apperror.ErrInvalidInput)
	}
	if len(files) > maxFilesPerRequest {
		return nil, apperror.New(400, fmt.Sprintf("maksimal %d file per unggahan", maxFilesPerRequest), apperror.ErrInvalidInput)
	}

	contentTypes := make([]string, len(files))
	for i, file := range files {
		contentType, err := s.validateFile(file)
		if err != nil {
			return nil, err
		}
		contentTypes[i] = contentType
	}

	results := make([]dto.UploadAttachmentResponse, len(files))
	errs := make([]error, len(files))

	var wg sync.WaitGroup
	for i, file := range files {
		wg.Add(1)
		go func(i int, file *multipart.FileHeader) {
			defer wg.Done()

			f, err := file.Open()
			if err != nil {
				errs[i] = err
				return
			}
			defer f.Close()

			uploaded, err := s.fileStorage.UploadFile(ctx, f, "achievements", file.Filename, contentTypes[i])
			if err != nil {
				errs[i] = err
				return
			}

			attachment := &entity.Attachment{
				UserID:   userID,
				FileName: uploaded.FileName,
				FileURL:  uploaded.FileURL,
				FileType: contentTypes[i],
			}
			if err := s.repo.Create(ctx, attachment); err != nil {
				errs[i] = err
				return
			}

			results[i] = dto.UploadAttachmentResponse{
				ID:         attachment.ID,
				FileName:   attachment.FileName,
				FileURL:    storage.ResolveURL(s.baseURL, attachment.FileURL),
				FileType:   attachment.FileType,
				UploadedAt: attachment.UploadedAt,
			}
		}(i, file)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}

// validateFile checks the size cap and sniffs the real content type from the
// first bytes.
func (s *attachmentService) validateFile(file *multipart.FileHeader) (string, error) {
	if file.Size > maxFileSize {
		return "", apperror.New(400, fmt.Sprintf("file %q melebihi batas 10 MB", file.Filename), apperror.ErrInvalidInput)
	}

	f, err := file.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	head := make([]byte, 512)
	n, _ := f.Read(head)
	contentType := http.DetectContentType(head[:n])

	// DetectContentType appends charset params to text types.
	if semi := strings.IndexByte(contentType, ';'); semi >= 0 {
		contentType = contentType[:semi]
	}

	if _, ok := allowedTypes[contentType]; !ok {
		return "", apperror.New(400, fmt.Sprintf("tipe file %q tidak diizinkan (hanya PDF, JPEG, PNG, WebP)", contentType), apperror.ErrInvalidInput)
	}

	return contentType, nil
}

// CleanupOrphanAttachments reaps files that were uploaded but never linked to
// an achievement, and files left behind by soft-deleted achievements.
func (s *attachmentService) CleanupOrphanAttachments(ctx context.Context) error {
	cutoff := time.Now().Add(-orphanMaxAge)

	orphans, err := s.repo.FindOrphans(ctx, cutoff)
	if err != nil {
		return err
	}

	for _, orphan := range orphans {
		if err := s.fileStorage.DeleteFile(ctx, orphan.FileURL); err != nil {
			log.Printf("failed to delete orphan file %s from storage: %v", orphan.FileURL, err)
			// DB row stays so the next run retries the storage delete.
			continue
		}
		if err := s.repo.Delete(ctx, orphan.ID); err != nil {
			log.Printf("failed to delete orphan attachment %d: %v", orphan.ID, err)
		}
	}
	return nil
}

package service

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/testguru/timelines/internal/model"
	"github.com/testguru/timelines/internal/repository"
	"github.com/testguru/timelines/internal/storage"
	"github.com/testguru/timelines/internal/validation"
)

const fallbackContentType = "application/octet-stream"

type KeyPhotoService struct {
	photoRepo     repository.KeyPhotoRepository
	storage       storage.Storage
	presignExpiry time.Duration
}

func NewKeyPhotoService(photoRepo repository.KeyPhotoRepository, store storage.Storage, presignExpiry time.Duration) *KeyPhotoService {
	return &KeyPhotoService{
		photoRepo:     photoRepo,
		storage:       store,
		presignExpiry: presignExpiry,
	}
}

// UploadInput carries a raw multipart upload into the lifecycle service,
// which owns all validation.
type UploadInput struct {
	File             multipart.File
	Header           *multipart.FileHeader
	PhotoTakenAt     time.Time
	WeightCentigrams *int // nil means "assign a random default"
}

// Upload validates the input, stores the blob under the caller's prefix,
// requests a presigned read URL, and persists the record. The blob is
// written before the record; if the record write then fails the blob is
// left orphaned for the out-of-band sweep, there is no inline compensation.
func (s *KeyPhotoService) Upload(user *model.User, in UploadInput) (*model.KeyPhoto, error) {
	if in.File == nil || in.Header == nil {
		return nil, validationErrorf("photo file is required")
	}
	if in.PhotoTakenAt.IsZero() {
		return nil, validationErrorf("photo_taken_at is required")
	}

	err := validation.ValidateFile(in.Header, validation.ImageConstraints)
	if err != nil {
		return nil, &ValidationError{Msg: err.Error()}
	}

	size, err := resolveSize(in.File, in.Header)
	if err != nil {
		return nil, validationErrorf("failed to read upload: %v", err)
	}

	weight := model.GenerateRandomWeight()
	if in.WeightCentigrams != nil {
		weight = *in.WeightCentigrams
	}

	filename, storagePath := storage.DeriveObjectPath(user.Username, in.Header.Filename)

	contentType := in.Header.Header.Get("Content-Type")
	err = s.storage.Save(storagePath, in.File, contentType)
	if err != nil {
		return nil, &StorageError{Op: "save", Path: storagePath, Err: err}
	}

	presignedURL, err := s.storage.PresignedURL(storagePath, s.presignExpiry)
	if err != nil {
		return nil, &StorageError{Op: "presign", Path: storagePath, Err: err}
	}

	now := time.Now()
	photo := &model.KeyPhoto{
		ID:               uuid.New().String(),
		UserID:           user.ID,
		Filename:         filename,
		StoragePath:      storagePath,
		PresignedURL:     presignedURL,
		PhotoTakenAt:     in.PhotoTakenAt,
		WeightCentigrams: weight,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if size > 0 {
		photo.Size = &size
	}

	err = s.photoRepo.Create(photo)
	if err != nil {
		// The blob is already written; the sweep picks up the orphan.
		slog.Error("key photo record write failed, blob orphaned",
			"error", err, "storage_path", storagePath, "user_id", user.ID)
		return nil, &PersistenceError{Path: storagePath, Err: err}
	}

	return photo, nil
}

// resolveSize trusts the reported size when present, otherwise measures
// the payload once and resets the read cursor.
func resolveSize(file multipart.File, header *multipart.FileHeader) (int64, error) {
	if header.Size > 0 {
		return header.Size, nil
	}

	n, err := io.Copy(io.Discard, file)
	if err != nil {
		return 0, err
	}
	_, err = file.Seek(0, io.SeekStart)
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *KeyPhotoService) Get(user *model.User, id string) (*model.KeyPhoto, error) {
	photo, err := s.photoRepo.ByIDAndUser(id, user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrKeyPhotoNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return photo, nil
}

// ListMine returns the caller's non-deleted photos, newest first.
func (s *KeyPhotoService) ListMine(user *model.User) ([]*model.KeyPhoto, error) {
	return s.photoRepo.AllByUser(user.ID)
}

// SoftDelete marks a caller-owned photo deleted. Idempotent: deleting an
// already-deleted photo succeeds.
func (s *KeyPhotoService) SoftDelete(user *model.User, id string) error {
	err := s.photoRepo.SoftDelete(id, user.ID, time.Now())
	if err != nil {
		if errors.Is(err, repository.ErrKeyPhotoNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// HardDelete removes the record entirely. The backing blob is retained;
// the sweep reports unreferenced keys.
func (s *KeyPhotoService) HardDelete(user *model.User, id string) error {
	err := s.photoRepo.Delete(id, user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrKeyPhotoNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// Download streams a caller-owned photo. Soft-deleted photos are gone, not
// found: the record exists but its content is no longer served.
func (s *KeyPhotoService) Download(user *model.User, id string) (*model.KeyPhoto, io.ReadCloser, string, error) {
	photo, err := s.Get(user, id)
	if err != nil {
		return nil, nil, "", err
	}
	if photo.IsDeleted {
		return nil, nil, "", ErrPhotoGone
	}

	body, err := s.storage.Open(photo.StoragePath)
	if err != nil {
		return nil, nil, "", &StorageError{Op: "open", Path: photo.StoragePath, Err: err}
	}

	contentType := mime.TypeByExtension(filepath.Ext(photo.Filename))
	if contentType == "" {
		contentType = fallbackContentType
	}

	return photo, body, contentType, nil
}

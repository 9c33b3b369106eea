package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/testguru/timelines/internal/model"
)

var (
	ErrKeyPhotoNotFound  = errors.New("key photo not found")
	ErrDuplicateFilename = errors.New("filename already exists for user")
)

// KeyPhotoWithOwner joins a key photo row with its owner's username,
// used by the storage sweep to derive canonical object keys.
type KeyPhotoWithOwner struct {
	model.KeyPhoto
	Username string `db:"username"`
}

type KeyPhotoRepository interface {
	Create(photo *model.KeyPhoto) error
	ByIDAndUser(id, userID string) (*model.KeyPhoto, error)
	AllByUser(userID string) ([]*model.KeyPhoto, error)
	SoftDelete(id, userID string, now time.Time) error
	Delete(id, userID string) error
	AllWithOwner() ([]*KeyPhotoWithOwner, error)
	UpdateStoragePath(id, storagePath string, now time.Time) error
}

type keyPhotoRepository struct {
	db *sqlx.DB
}

func NewKeyPhotoRepository(db *sqlx.DB) KeyPhotoRepository {
	return &keyPhotoRepository{db: db}
}

func (r *keyPhotoRepository) Create(photo *model.KeyPhoto) error {
	query := `INSERT INTO key_photos (id, user_id, filename, storage_path, presigned_url, photo_taken_at, weight_centigrams, size, created_at, updated_at, is_deleted)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.Exec(query,
		photo.ID,
		photo.UserID,
		photo.Filename,
		photo.StoragePath,
		photo.PresignedURL,
		photo.PhotoTakenAt,
		photo.WeightCentigrams,
		photo.Size,
		photo.CreatedAt,
		photo.UpdatedAt,
		photo.IsDeleted,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateFilename
	}

	return err
}

// ByIDAndUser looks up a photo with ownership folded into the predicate.
// A foreign id and a missing id are the same not-found result.
func (r *keyPhotoRepository) ByIDAndUser(id, userID string) (*model.KeyPhoto, error) {
	photo := &model.KeyPhoto{}
	query := `SELECT * FROM key_photos WHERE id = $1 AND user_id = $2`

	err := r.db.Get(photo, query, id, userID)
	if err == sql.ErrNoRows {
		return nil, ErrKeyPhotoNotFound
	}

	return photo, err
}

func (r *keyPhotoRepository) AllByUser(userID string) ([]*model.KeyPhoto, error) {
	var photos []*model.KeyPhoto
	query := `SELECT * FROM key_photos WHERE user_id = $1 AND is_deleted = FALSE ORDER BY created_at DESC`

	err := r.db.Select(&photos, query, userID)
	if err != nil {
		return nil, err
	}

	return photos, nil
}

// SoftDelete marks a photo deleted. Re-running on an already-deleted row
// still matches the predicate, which keeps the operation idempotent.
func (r *keyPhotoRepository) SoftDelete(id, userID string, now time.Time) error {
	query := `UPDATE key_photos SET is_deleted = TRUE, updated_at = $1 WHERE id = $2 AND user_id = $3`

	result, err := r.db.Exec(query, now, id, userID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrKeyPhotoNotFound
	}

	return nil
}

func (r *keyPhotoRepository) Delete(id, userID string) error {
	query := `DELETE FROM key_photos WHERE id = $1 AND user_id = $2`

	result, err := r.db.Exec(query, id, userID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrKeyPhotoNotFound
	}

	return nil
}

func (r *keyPhotoRepository) AllWithOwner() ([]*KeyPhotoWithOwner, error) {
	var photos []*KeyPhotoWithOwner
	query := `SELECT key_photos.*, users.username AS username
	          FROM key_photos JOIN users ON users.id = key_photos.user_id
	          ORDER BY key_photos.created_at`

	err := r.db.Select(&photos, query)
	if err != nil {
		return nil, err
	}

	return photos, nil
}

func (r *keyPhotoRepository) UpdateStoragePath(id, storagePath string, now time.Time) error {
	query := `UPDATE key_photos SET storage_path = $1, updated_at = $2 WHERE id = $3`

	_, err := r.db.Exec(query, storagePath, now, id)
	return err
}

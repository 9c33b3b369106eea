package storage

import (
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
)

// DeriveObjectPath computes the canonical storage key for a user's photo.
// The generated filename keeps the original extension (case as supplied),
// and the per-user prefix makes cross-user collisions impossible without
// any coordination.
func DeriveObjectPath(username, originalFilename string) (filename, objectPath string) {
	ext := filepath.Ext(originalFilename)
	filename = fmt.Sprintf("%s%s", uuid.New().String(), ext)
	objectPath = fmt.Sprintf("users/%s/keyphotos/%s", username, filename)
	return filename, objectPath
}

// UserPrefix returns the storage prefix holding all of a user's photos
func UserPrefix(username string) string {
	return fmt.Sprintf("users/%s/keyphotos/", username)
}

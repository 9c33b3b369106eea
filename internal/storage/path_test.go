package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveObjectPath(t *testing.T) {
	tests := []struct {
		name     string
		username string
		original string
		wantExt  string
	}{
		{"jpg", "alice", "photo.jpg", ".jpg"},
		{"uppercase extension kept as supplied", "alice", "photo.JPG", ".JPG"},
		{"png", "bob", "scale-reading.png", ".png"},
		{"no extension", "alice", "photo", ""},
		{"dotted name", "alice", "my.morning.photo.webp", ".webp"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			filename, objectPath := DeriveObjectPath(tc.username, tc.original)

			assert.True(t, strings.HasSuffix(filename, tc.wantExt), "filename %q should end in %q", filename, tc.wantExt)
			assert.Equal(t, "users/"+tc.username+"/keyphotos/"+filename, objectPath)
			assert.True(t, strings.HasPrefix(objectPath, UserPrefix(tc.username)))
		})
	}
}

func TestDeriveObjectPathUniqueness(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		filename, _ := DeriveObjectPath("alice", "photo.jpg")
		require.False(t, seen[filename], "duplicate generated filename %q", filename)
		seen[filename] = true
	}
}

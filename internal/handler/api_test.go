package handler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testguru/timelines/internal/app"
	"github.com/testguru/timelines/internal/db"
	"github.com/testguru/timelines/internal/model"
	"github.com/testguru/timelines/internal/repository"
	"github.com/testguru/timelines/internal/routes"
	"github.com/testguru/timelines/internal/service"
)

// Minimal JPEG header so magic-number sniffing sees a real image
var jpegBytes = append([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}, bytes.Repeat([]byte{0x22}, 64)...)

type fakeStorage struct {
	saved map[string][]byte
}

func (f *fakeStorage) Save(path string, file io.Reader, contentType string) error {
	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}
	f.saved[path] = data
	return nil
}

func (f *fakeStorage) Open(path string) (io.ReadCloser, error) {
	data, ok := f.saved[path]
	if !ok {
		return nil, errors.New("no such key")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeStorage) Delete(path string) error {
	delete(f.saved, path)
	return nil
}

func (f *fakeStorage) PresignedURL(path string, expiry time.Duration) (string, error) {
	return "https://blobs.test/" + path + "?sig=abc", nil
}

// newTestServer stands up the full router over an in-memory database
// and a map-backed blob store.
func newTestServer(t *testing.T) (*httptest.Server, *fakeStorage) {
	t.Helper()

	conn, err := sqlx.Connect("sqlite", ":memory:")
	require.NoError(t, err)
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, db.RunMigrations(conn.DB, "sqlite"))

	userRepo := repository.NewUserRepository(conn)
	timelineRepo := repository.NewTimelineRepository(conn)
	typeRepo := repository.NewTimelineTypeRepository(conn)
	photoRepo := repository.NewKeyPhotoRepository(conn)

	store := &fakeStorage{saved: map[string][]byte{}}

	application := &app.App{
		DB:              conn,
		AuthService:     service.NewAuthService(userRepo, "test-secret", time.Hour),
		UserService:     service.NewUserService(userRepo),
		TimelineService: service.NewTimelineService(timelineRepo, typeRepo),
		KeyPhotoService: service.NewKeyPhotoService(photoRepo, store, time.Hour),
	}

	server := httptest.NewServer(routes.SetupRoutes(application))
	t.Cleanup(server.Close)
	return server, store
}

func doJSON(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()

	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// registerAndLogin creates an account through the API and returns a token
func registerAndLogin(t *testing.T, server *httptest.Server, username string) string {
	t.Helper()

	creds := map[string]string{"username": username, "password": "password123"}

	resp := doJSON(t, http.MethodPost, server.URL+"/auth/register", "", creds)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	resp = doJSON(t, http.MethodPost, server.URL+"/auth/login", "", creds)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	login := decodeBody[map[string]any](t, resp)

	token, ok := login["token"].(string)
	require.True(t, ok, "login response must carry a token")
	return token
}

func uploadPhoto(t *testing.T, server *httptest.Server, token, filename string, fields map[string]string) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	partHeader := make(textproto.MIMEHeader)
	partHeader.Set("Content-Disposition", fmt.Sprintf(`form-data; name="photo"; filename="%s"`, filename))
	partHeader.Set("Content-Type", "image/jpeg")
	part, err := mw.CreatePart(partHeader)
	require.NoError(t, err)
	_, err = part.Write(jpegBytes)
	require.NoError(t, err)

	for key, value := range fields {
		require.NoError(t, mw.WriteField(key, value))
	}
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, server.URL+"/keyphotos", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestAuthFlow(t *testing.T) {
	server, _ := newTestServer(t)

	t.Run("register and login", func(t *testing.T) {
		token := registerAndLogin(t, server, "alice")
		assert.NotEmpty(t, token)
	})

	t.Run("duplicate username conflicts", func(t *testing.T) {
		resp := doJSON(t, http.MethodPost, server.URL+"/auth/register", "",
			map[string]string{"username": "alice", "password": "password123"})
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("bad credentials", func(t *testing.T) {
		resp := doJSON(t, http.MethodPost, server.URL+"/auth/login", "",
			map[string]string{"username": "alice", "password": "wrong"})
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestRequiresAuth(t *testing.T) {
	server, _ := newTestServer(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/timelines"},
		{http.MethodGet, "/timelines/types"},
		{http.MethodGet, "/keyphotos"},
		{http.MethodPost, "/keyphotos"},
		{http.MethodGet, "/keyphotos/some-id/download"},
	}
	for _, tc := range paths {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			resp := doJSON(t, tc.method, server.URL+tc.path, "", nil)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestTimelineEndpoints(t *testing.T) {
	server, _ := newTestServer(t)
	alice := registerAndLogin(t, server, "alice")
	bob := registerAndLogin(t, server, "bob")

	var created model.Timeline

	t.Run("create", func(t *testing.T) {
		resp := doJSON(t, http.MethodPost, server.URL+"/timelines", alice, map[string]string{"name": "Cutting 2024"})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		created = decodeBody[model.Timeline](t, resp)
		assert.Equal(t, "Cutting 2024", created.Name)
	})

	t.Run("duplicate name conflicts", func(t *testing.T) {
		resp := doJSON(t, http.MethodPost, server.URL+"/timelines", alice, map[string]string{"name": "Cutting 2024"})
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("same name for another user", func(t *testing.T) {
		resp := doJSON(t, http.MethodPost, server.URL+"/timelines", bob, map[string]string{"name": "Cutting 2024"})
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
	})

	t.Run("get own", func(t *testing.T) {
		resp := doJSON(t, http.MethodGet, server.URL+"/timelines/"+created.ID, alice, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		got := decodeBody[model.Timeline](t, resp)
		assert.Equal(t, created.ID, got.ID)
	})

	t.Run("foreign caller sees not found", func(t *testing.T) {
		resp := doJSON(t, http.MethodGet, server.URL+"/timelines/"+created.ID, bob, nil)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("types are seeded", func(t *testing.T) {
		resp := doJSON(t, http.MethodGet, server.URL+"/timelines/types", alice, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		types := decodeBody[[]model.TimelineType](t, resp)
		require.NotEmpty(t, types)
		assert.Equal(t, "Weight Tracking", types[0].Name)
	})

	t.Run("soft delete hides from list", func(t *testing.T) {
		resp := doJSON(t, http.MethodDelete, server.URL+"/timelines/"+created.ID, alice, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		_ = resp.Body.Close()

		resp = doJSON(t, http.MethodGet, server.URL+"/timelines", alice, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		timelines := decodeBody[[]model.Timeline](t, resp)
		assert.Empty(t, timelines)
	})
}

func TestKeyPhotoUpload(t *testing.T) {
	server, store := newTestServer(t)
	alice := registerAndLogin(t, server, "alice")

	t.Run("with explicit weight", func(t *testing.T) {
		resp := uploadPhoto(t, server, alice, "morning.jpg", map[string]string{
			"photo_taken_at":    "2024-01-15T08:30:00Z",
			"weight_centigrams": "750",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		photo := decodeBody[model.KeyPhoto](t, resp)

		assert.True(t, strings.HasPrefix(photo.StoragePath, "users/alice/keyphotos/"), "storage path %q", photo.StoragePath)
		assert.True(t, strings.HasSuffix(photo.Filename, ".jpg"))
		assert.Equal(t, 750, photo.WeightCentigrams)
		assert.NotEmpty(t, photo.PresignedURL)
		assert.Equal(t, jpegBytes, store.saved[photo.StoragePath])
	})

	t.Run("weight defaults into range", func(t *testing.T) {
		resp := uploadPhoto(t, server, alice, "evening.jpg", map[string]string{
			"photo_taken_at": "2024-01-15T20:30:00Z",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		photo := decodeBody[model.KeyPhoto](t, resp)

		assert.GreaterOrEqual(t, photo.WeightCentigrams, model.WeightRandomMin)
		assert.LessOrEqual(t, photo.WeightCentigrams, model.WeightRandomMax)
	})

	t.Run("missing photo_taken_at", func(t *testing.T) {
		resp := uploadPhoto(t, server, alice, "late.jpg", nil)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("malformed photo_taken_at", func(t *testing.T) {
		resp := uploadPhoto(t, server, alice, "late.jpg", map[string]string{"photo_taken_at": "yesterday"})
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestKeyPhotoLifecycle(t *testing.T) {
	server, store := newTestServer(t)
	alice := registerAndLogin(t, server, "alice")
	bob := registerAndLogin(t, server, "bob")

	resp := uploadPhoto(t, server, alice, "progress.jpg", map[string]string{
		"photo_taken_at": "2024-02-01T07:00:00Z",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	photo := decodeBody[model.KeyPhoto](t, resp)

	t.Run("download streams the blob", func(t *testing.T) {
		resp := doJSON(t, http.MethodGet, server.URL+"/keyphotos/"+photo.ID+"/download", alice, nil)
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		assert.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))
		assert.Contains(t, resp.Header.Get("Content-Disposition"), photo.Filename)
		data, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, jpegBytes, data)
	})

	t.Run("foreign caller sees not found", func(t *testing.T) {
		resp := doJSON(t, http.MethodGet, server.URL+"/keyphotos/"+photo.ID, bob, nil)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("soft delete then download is gone", func(t *testing.T) {
		resp := doJSON(t, http.MethodDelete, server.URL+"/keyphotos/"+photo.ID, alice, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		_ = resp.Body.Close()

		resp = doJSON(t, http.MethodGet, server.URL+"/keyphotos/"+photo.ID+"/download", alice, nil)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusGone, resp.StatusCode)
	})

	t.Run("soft-deleted photo hidden from list", func(t *testing.T) {
		resp := doJSON(t, http.MethodGet, server.URL+"/keyphotos", alice, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		photos := decodeBody[[]model.KeyPhoto](t, resp)
		assert.Empty(t, photos)
	})

	t.Run("hard delete removes the record, keeps the blob", func(t *testing.T) {
		resp := doJSON(t, http.MethodDelete, server.URL+"/keyphotos/"+photo.ID+"/permanent", alice, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		_ = resp.Body.Close()

		resp = doJSON(t, http.MethodGet, server.URL+"/keyphotos/"+photo.ID, alice, nil)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		// Blob cleanup belongs to the sweep, not the request path
		assert.Contains(t, store.saved, photo.StoragePath)
	})
}

func TestKeyPhotoListMine(t *testing.T) {
	server, _ := newTestServer(t)
	alice := registerAndLogin(t, server, "alice")
	bob := registerAndLogin(t, server, "bob")

	var uploaded []model.KeyPhoto
	for _, name := range []string{"one.jpg", "two.jpg"} {
		resp := uploadPhoto(t, server, alice, name, map[string]string{"photo_taken_at": "2024-03-01T09:00:00Z"})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		uploaded = append(uploaded, decodeBody[model.KeyPhoto](t, resp))
	}
	resp := uploadPhoto(t, server, bob, "bobs.jpg", map[string]string{"photo_taken_at": "2024-03-01T09:00:00Z"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	// Soft-delete the first upload; the survivor is the newest
	resp = doJSON(t, http.MethodDelete, server.URL+"/keyphotos/"+uploaded[0].ID, alice, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp = doJSON(t, http.MethodGet, server.URL+"/keyphotos", alice, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	photos := decodeBody[[]model.KeyPhoto](t, resp)

	require.Len(t, photos, 1)
	assert.Equal(t, uploaded[1].ID, photos[0].ID)
	assert.True(t, strings.HasPrefix(photos[0].StoragePath, "users/alice/keyphotos/"))
}

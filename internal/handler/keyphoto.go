package handler

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/testguru/timelines/internal/ctxkeys"
	"github.com/testguru/timelines/internal/model"
	"github.com/testguru/timelines/internal/service"
)

// maxUploadMemory bounds the in-memory part of multipart parsing (32MB)
const maxUploadMemory = 32 << 20

type KeyPhotoHandler struct {
	photoService *service.KeyPhotoService
}

func NewKeyPhotoHandler(photoService *service.KeyPhotoService) *KeyPhotoHandler {
	return &KeyPhotoHandler{photoService: photoService}
}

func (h *KeyPhotoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	err := r.ParseMultipartForm(maxUploadMemory)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		writeError(w, http.StatusBadRequest, "photo file is required")
		return
	}
	defer func() {
		closeErr := file.Close()
		if closeErr != nil {
			slog.Error("failed to close upload", "error", closeErr)
		}
	}()

	takenAtRaw := r.FormValue("photo_taken_at")
	if takenAtRaw == "" {
		writeError(w, http.StatusBadRequest, "photo_taken_at is required")
		return
	}
	takenAt, err := time.Parse(time.RFC3339, takenAtRaw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "photo_taken_at must be RFC3339")
		return
	}

	var weight *int
	if raw := r.FormValue("weight_centigrams"); raw != "" {
		n, convErr := strconv.Atoi(raw)
		if convErr != nil {
			writeError(w, http.StatusBadRequest, "weight_centigrams must be an integer")
			return
		}
		weight = &n
	}

	photo, err := h.photoService.Upload(user, service.UploadInput{
		File:             file,
		Header:           header,
		PhotoTakenAt:     takenAt,
		WeightCentigrams: weight,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	slog.Info("key photo uploaded",
		"user_id", user.ID, "photo_id", photo.ID, "storage_path", photo.StoragePath)
	writeJSON(w, http.StatusCreated, photo)
}

func (h *KeyPhotoHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	photos, err := h.photoService.ListMine(user)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if photos == nil {
		photos = []*model.KeyPhoto{}
	}

	writeJSON(w, http.StatusOK, photos)
}

func (h *KeyPhotoHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	photo, err := h.photoService.Get(user, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, photo)
}

func (h *KeyPhotoHandler) SoftDelete(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	err := h.photoService.SoftDelete(user, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *KeyPhotoHandler) HardDelete(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	err := h.photoService.HardDelete(user, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *KeyPhotoHandler) Download(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	photo, body, contentType, err := h.photoService.Download(user, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	defer func() { _ = body.Close() }()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+photo.Filename+`"`)
	w.WriteHeader(http.StatusOK)

	_, err = io.Copy(w, body)
	if err != nil {
		slog.Error("failed to stream photo", "error", err, "photo_id", photo.ID)
	}
}

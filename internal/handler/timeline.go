package handler

import (
	"net/http"

	"github.com/testguru/timelines/internal/ctxkeys"
	"github.com/testguru/timelines/internal/model"
	"github.com/testguru/timelines/internal/service"
)

type TimelineHandler struct {
	timelineService *service.TimelineService
}

func NewTimelineHandler(timelineService *service.TimelineService) *TimelineHandler {
	return &TimelineHandler{timelineService: timelineService}
}

type createTimelineRequest struct {
	Name string `json:"name"`
}

func (h *TimelineHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req createTimelineRequest
	err := parseJSON(r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	timeline, err := h.timelineService.Create(user, req.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, timeline)
}

func (h *TimelineHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	timelines, err := h.timelineService.ListMine(user)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if timelines == nil {
		timelines = []*model.Timeline{}
	}

	writeJSON(w, http.StatusOK, timelines)
}

func (h *TimelineHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	timeline, err := h.timelineService.Get(user, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, timeline)
}

func (h *TimelineHandler) SoftDelete(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	err := h.timelineService.SoftDelete(user, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *TimelineHandler) ListTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.timelineService.Types()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if types == nil {
		types = []*model.TimelineType{}
	}

	writeJSON(w, http.StatusOK, types)
}

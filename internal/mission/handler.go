package mission

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/mission-management/internal"
	"github.com/frahmantamala/mission-management/internal/auth"
	"github.com/frahmantamala/mission-management/internal/storage"
	"github.com/frahmantamala/mission-management/internal/transport"
	"github.com/frahmantamala/mission-management/internal/user"
)

type ServiceAPI interface {
	CreateMission(actor Actor, dto CreateMissionDTO, uploads []*storage.Upload) (*Mission, error)
	GetMission(actor Actor, missionID int64) (*Mission, error)
	ListMissions(actor Actor, limit, offset int) ([]*Mission, error)
	ListAllMissions(actor Actor, limit, offset int) ([]*Mission, error)
	UpdateMission(actor Actor, missionID int64, dto UpdateMissionDTO, uploads []*storage.Upload) (*Mission, error)
	ToggleComplete(actor Actor, missionID int64) (*Mission, error)
	DeleteMission(actor Actor, missionID int64) error
}

type Handler struct {
	*transport.BaseHandler
	Service       ServiceAPI
	maxUploadSize int64
}

func NewHandler(logger *slog.Logger, svc ServiceAPI, maxUploadSize int64) *Handler {
	return &Handler{
		BaseHandler:   transport.NewBaseHandler(logger),
		Service:       svc,
		maxUploadSize: maxUploadSize,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/missions", h.List)
	r.Post("/missions", h.Create)
	r.Get("/missions/{id}", h.Get)
	r.Patch("/missions/{id}", h.Update)
	r.Put("/missions/{id}", h.Update)
	r.Delete("/missions/{id}", h.Delete)
	r.Patch("/missions/{id}/toggle_complete", h.ToggleComplete)
	r.Post("/missions/{id}/toggle_complete", h.ToggleComplete)
}

func (h *Handler) actor(r *http.Request) (Actor, bool) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		return Actor{}, false
	}
	return Actor{ID: u.ID, Role: user.Role(u.Role), IsStaff: u.IsStaff}, true
}

func (h *Handler) missionID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// handleError maps assignment rejections onto a 403 that names the
// offending usernames; everything else goes through the shared mapping.
func (h *Handler) handleError(w http.ResponseWriter, err error) {
	var assignErr *AssignmentError
	if errors.As(err, &assignErr) {
		appErr := internal.NewForbiddenError(assignErr.Error(), internal.ErrCodeAssignmentNotAllowed).
			WithDetails(map[string]interface{}{"invalid_assignees": assignErr.InvalidUsernames})
		status, body := appErr.ToHTTPResponse()
		h.WriteJSON(w, status, body)
		return
	}
	h.HandleServiceError(w, err)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(r)
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	limit, offset := paginationParams(r)

	var (
		missions []*Mission
		err      error
	)
	if r.URL.Query().Get("all") == "true" {
		missions, err = h.Service.ListAllMissions(actor, limit, offset)
	} else {
		missions, err = h.Service.ListMissions(actor, limit, offset)
	}
	if err != nil {
		h.handleError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ToResponseSlice(missions, actor.ID))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(r)
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := h.missionID(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid mission id")
		return
	}

	m, err := h.Service.GetMission(actor, id)
	if err != nil {
		h.handleError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, m.ToResponse(actor.ID))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(r)
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	dto, uploads, cleanup, err := h.parseCreatePayload(r)
	if err != nil {
		h.Logger.Warn("invalid mission payload", "error", err)
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer cleanup()

	m, err := h.Service.CreateMission(actor, dto, uploads)
	if err != nil {
		h.handleError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, m.ToResponse(actor.ID))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(r)
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := h.missionID(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid mission id")
		return
	}

	dto, uploads, cleanup, err := h.parseUpdatePayload(r)
	if err != nil {
		h.Logger.Warn("invalid mission payload", "error", err)
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer cleanup()

	m, err := h.Service.UpdateMission(actor, id, dto, uploads)
	if err != nil {
		h.handleError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, m.ToResponse(actor.ID))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(r)
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := h.missionID(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid mission id")
		return
	}

	if err := h.Service.DeleteMission(actor, id); err != nil {
		h.handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ToggleComplete(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(r)
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := h.missionID(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid mission id")
		return
	}

	m, err := h.Service.ToggleComplete(actor, id)
	if err != nil {
		h.handleError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, m.ToResponse(actor.ID))
}

// parseCreatePayload accepts either a JSON body or a multipart form. The
// multipart path is how clients attach files at creation time.
func (h *Handler) parseCreatePayload(r *http.Request) (CreateMissionDTO, []*storage.Upload, func(), error) {
	var dto CreateMissionDTO

	if !isMultipart(r) {
		if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
			return dto, nil, noopCleanup, errors.New("invalid request body")
		}
		return dto, nil, noopCleanup, nil
	}

	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		return dto, nil, noopCleanup, errors.New("invalid multipart form")
	}

	dto.Description = r.FormValue("description")
	dto.FromTo = r.FormValue("from_to")

	if v := r.FormValue("assigned_date"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return dto, nil, noopCleanup, errors.New("invalid assigned_date, expected YYYY-MM-DD")
		}
		dto.AssignedDate = DateOnly{Time: t}
	}
	if v := r.FormValue("end_date"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return dto, nil, noopCleanup, errors.New("invalid end_date, expected YYYY-MM-DD")
		}
		dto.EndDate = DateOnly{Time: t}
	}

	ids, err := formUserIDs(r)
	if err != nil {
		return dto, nil, noopCleanup, err
	}
	dto.DueTo = ids

	uploads, cleanup, err := h.formUploads(r)
	if err != nil {
		return dto, nil, noopCleanup, err
	}
	return dto, uploads, cleanup, nil
}

func (h *Handler) parseUpdatePayload(r *http.Request) (UpdateMissionDTO, []*storage.Upload, func(), error) {
	var dto UpdateMissionDTO

	if !isMultipart(r) {
		if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
			return dto, nil, noopCleanup, errors.New("invalid request body")
		}
		return dto, nil, noopCleanup, nil
	}

	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		return dto, nil, noopCleanup, errors.New("invalid multipart form")
	}

	if _, ok := r.MultipartForm.Value["description"]; ok {
		v := r.FormValue("description")
		dto.Description = &v
	}
	if _, ok := r.MultipartForm.Value["from_to"]; ok {
		v := r.FormValue("from_to")
		dto.FromTo = &v
	}
	if v := r.FormValue("assigned_date"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return dto, nil, noopCleanup, errors.New("invalid assigned_date, expected YYYY-MM-DD")
		}
		dto.AssignedDate = &DateOnly{Time: t}
	}
	if v := r.FormValue("end_date"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return dto, nil, noopCleanup, errors.New("invalid end_date, expected YYYY-MM-DD")
		}
		dto.EndDate = &DateOnly{Time: t}
	}
	if _, ok := r.MultipartForm.Value["due_to"]; ok {
		ids, err := formUserIDs(r)
		if err != nil {
			return dto, nil, noopCleanup, err
		}
		dto.DueTo = &ids
	}

	uploads, cleanup, err := h.formUploads(r)
	if err != nil {
		return dto, nil, noopCleanup, err
	}
	return dto, uploads, cleanup, nil
}

// formUserIDs reads repeated due_to form values. Each value may be a
// single id or a comma separated list.
func formUserIDs(r *http.Request) (UserIDList, error) {
	ids := UserIDList{}
	for _, raw := range r.MultipartForm.Value["due_to"] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, errors.New("invalid user id in due_to")
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (h *Handler) formUploads(r *http.Request) ([]*storage.Upload, func(), error) {
	headers := r.MultipartForm.File["attachments"]
	if len(headers) == 0 {
		return nil, noopCleanup, nil
	}

	uploads := make([]*storage.Upload, 0, len(headers))
	opened := make([]multipart.File, 0, len(headers))
	cleanup := func() {
		for _, f := range opened {
			f.Close()
		}
	}

	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			cleanup()
			return nil, noopCleanup, errors.New("failed to read attachment")
		}
		opened = append(opened, f)
		uploads = append(uploads, &storage.Upload{
			FileName: fh.Filename,
			Content:  f,
		})
	}

	return uploads, cleanup, nil
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

func paginationParams(r *http.Request) (limit, offset int) {
	limit = 50
	offset = 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}

func noopCleanup() {}

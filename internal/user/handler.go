package user

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/mission-management/internal/auth"
	"github.com/frahmantamala/mission-management/internal/storage"
	"github.com/frahmantamala/mission-management/internal/transport"
)

type ServiceAPI interface {
	Register(dto RegisterDTO) (*User, error)
	GetByID(userID int64) (*User, error)
	UpdateProfile(userID int64, dto UpdateProfileDTO, photo *storage.Upload) (*User, error)
	ChangePassword(userID int64, dto ChangePasswordDTO) error
	AssignableUsers(actorRole Role) ([]*User, error)
	OrganizationChart() (*OrganizationChart, error)
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

// RegisterPublicRoutes mounts the endpoints that do not require a token.
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/user/register", h.Register)
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/user/profile", h.Profile)
	r.Patch("/user/profile", h.UpdateProfile)
	r.Put("/user/profile", h.UpdateProfile)
	r.Post("/user/change-password", h.ChangePassword)
	r.Get("/users/assignable_users", h.AssignableUsers)
	r.Get("/users/assignable", h.AssignableUsers)
	r.Get("/users/organization_chart", h.OrganizationChart)
	r.Get("/users/organization-chart", h.OrganizationChart)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var dto RegisterDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.Service.Register(dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, RegisteredResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
	})
}

func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	u, err := h.Service.GetByID(principal.ID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var (
		dto   UpdateProfileDTO
		photo *storage.Upload
	)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
			h.WriteError(w, http.StatusBadRequest, "invalid multipart form")
			return
		}

		if payload := r.FormValue("payload"); payload != "" {
			if err := json.Unmarshal([]byte(payload), &dto); err != nil {
				h.WriteError(w, http.StatusBadRequest, "invalid payload field")
				return
			}
		} else {
			formProfileFields(r, &dto)
		}

		if files := r.MultipartForm.File["profile_photo"]; len(files) > 0 {
			f, err := files[0].Open()
			if err != nil {
				h.WriteError(w, http.StatusBadRequest, "failed to read profile photo")
				return
			}
			defer f.Close()
			photo = &storage.Upload{FileName: files[0].Filename, Content: f}
		}
	} else {
		if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
			h.WriteError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	u, err := h.Service.UpdateProfile(principal.ID, dto, photo)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var dto ChangePasswordDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Service.ChangePassword(principal.ID, dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "password changed"})
}

// AssignableUsers lists who the requester may assign missions to, per
// their role.
func (h *Handler) AssignableUsers(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	users, err := h.Service.AssignableUsers(Role(principal.Role))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	summaries := make([]Summary, len(users))
	for i, u := range users {
		summaries[i] = u.Summary()
	}

	h.WriteJSON(w, http.StatusOK, summaries)
}

func (h *Handler) OrganizationChart(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.UserFromContext(r.Context()); !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	chart, err := h.Service.OrganizationChart()
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, chart)
}

// formProfileFields maps flat multipart fields onto the DTO for clients
// that cannot send a JSON payload part.
func formProfileFields(r *http.Request, dto *UpdateProfileDTO) {
	set := func(name string, target **string) {
		if _, ok := r.MultipartForm.Value[name]; ok {
			v := r.FormValue(name)
			*target = &v
		}
	}
	set("first_name", &dto.FirstName)
	set("last_name", &dto.LastName)
	set("title", &dto.Title)
	set("department", &dto.Department)
	set("phone", &dto.Phone)
	set("notification_email", &dto.NotificationEmail)

	setBool := func(name string, target **bool) {
		if _, ok := r.MultipartForm.Value[name]; ok {
			v := r.FormValue(name) == "true"
			*target = &v
		}
	}
	setBool("email_notifications", &dto.EmailNotifications)
	setBool("task_reminders", &dto.TaskReminders)
	setBool("deadline_alerts", &dto.DeadlineAlerts)
}

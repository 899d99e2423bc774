package mission

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/mission-management/internal"
	"github.com/frahmantamala/mission-management/internal/core/events"
	"github.com/frahmantamala/mission-management/internal/storage"
	"github.com/frahmantamala/mission-management/internal/user"
)

// Actor is the authenticated user performing a mission operation.
type Actor struct {
	ID      int64
	Role    user.Role
	IsStaff bool
}

// Repository defines the data access methods for missions
type Repository interface {
	Create(m *Mission) error
	GetByID(id int64) (*Mission, error)
	ListForUser(userID int64, limit, offset int) ([]*Mission, error)
	ListAll(limit, offset int) ([]*Mission, error)
	Update(m *Mission) error
	AddAttachments(missionID int64, attachments []*Attachment) error
	ToggleComplete(id int64) error
	Delete(id int64) error
}

// UserDirectory resolves proposed assignee ids to users so their roles
// can be checked against the matrix.
type UserDirectory interface {
	GetByIDs(ids []int64) ([]*user.User, error)
}

// EventPublisher decouples mission state changes from notification side
// effects.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// Service handles mission business logic: the authorization predicates,
// assignment eligibility and the completion lifecycle.
type Service struct {
	repo   Repository
	users  UserDirectory
	files  storage.FileStore
	bus    EventPublisher
	logger *slog.Logger
}

func NewService(repo Repository, users UserDirectory, files storage.FileStore, bus EventPublisher, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		users:  users,
		files:  files,
		bus:    bus,
		logger: logger,
	}
}

// validateAssignees resolves the proposed assignee set and rejects the
// whole operation if any target role is outside the actor's matrix row.
// Runs before any write so a rejection never leaves partial state.
func (s *Service) validateAssignees(actor Actor, ids []int64) ([]*user.User, error) {
	if len(ids) == 0 {
		return []*user.User{}, nil
	}

	assignees, err := s.users.GetByIDs(ids)
	if err != nil {
		return nil, internal.NewInternalError("failed to resolve assignees", err)
	}

	if len(assignees) != len(ids) {
		s.logger.Warn("assignment rejected: unknown assignee ids", "requested", len(ids), "found", len(assignees))
		return nil, internal.NewNotFoundError("one or more assignees do not exist", internal.ErrCodeUserNotFound)
	}

	var invalid []string
	for _, u := range assignees {
		if !actor.Role.CanAssignTo(u.Role) {
			invalid = append(invalid, u.Username)
		}
	}
	if len(invalid) > 0 {
		s.logger.Warn("assignment rejected by role matrix",
			"actor_id", actor.ID,
			"actor_role", actor.Role,
			"invalid_assignees", invalid)
		return nil, &AssignmentError{InvalidUsernames: invalid}
	}

	return assignees, nil
}

// CreateMission validates assignment eligibility, persists the mission
// and stores any uploaded attachments.
func (s *Service) CreateMission(actor Actor, dto CreateMissionDTO, uploads []*storage.Upload) (*Mission, error) {
	if err := dto.Validate(); err != nil {
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	assigneeIDs := dto.DueTo.Deduplicate()
	assignees, err := s.validateAssignees(actor, assigneeIDs)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	creatorID := actor.ID
	m := &Mission{
		Description:  dto.Description,
		AssignedDate: dto.AssignedDate.Time,
		EndDate:      dto.EndDate.Time,
		FromTo:       dto.FromTo,
		Completed:    false,
		CreatedByID:  &creatorID,
		DueTo:        summaries(assignees),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(m); err != nil {
		s.logger.Error("failed to create mission", "error", err, "creator_id", actor.ID)
		return nil, internal.NewInternalError("failed to create mission", err)
	}

	if err := s.appendAttachments(m, uploads); err != nil {
		return nil, err
	}

	s.logger.Info("mission created",
		"mission_id", m.ID,
		"creator_id", actor.ID,
		"assignees", len(assignees))

	for _, a := range assignees {
		s.bus.Publish(context.Background(), events.NewMissionAssignedEvent(m.ID, a.ID, m.Description))
	}

	return s.repo.GetByID(m.ID)
}

// GetMission returns the mission if the requester may see it.
func (s *Service) GetMission(actor Actor, missionID int64) (*Mission, error) {
	m, err := s.repo.GetByID(missionID)
	if err != nil {
		return nil, internal.ErrMissionNotFound
	}

	if !m.CanView(actor.ID) && !actor.IsStaff {
		s.logger.Warn("mission view denied", "mission_id", missionID, "user_id", actor.ID)
		return nil, internal.NewForbiddenError("you do not have access to this mission", internal.ErrCodeCannotEditMission)
	}

	return m, nil
}

// ListMissions returns missions created by or assigned to the requester.
func (s *Service) ListMissions(actor Actor, limit, offset int) ([]*Mission, error) {
	missions, err := s.repo.ListForUser(actor.ID, limit, offset)
	if err != nil {
		s.logger.Error("failed to list missions", "error", err, "user_id", actor.ID)
		return nil, internal.NewInternalError("failed to list missions", err)
	}
	return missions, nil
}

// ListAllMissions is the privileged global listing, staff only.
func (s *Service) ListAllMissions(actor Actor, limit, offset int) ([]*Mission, error) {
	if !actor.IsStaff {
		s.logger.Warn("list all missions denied", "user_id", actor.ID)
		return nil, internal.ErrStaffOnly
	}

	missions, err := s.repo.ListAll(limit, offset)
	if err != nil {
		s.logger.Error("failed to list all missions", "error", err)
		return nil, internal.NewInternalError("failed to list missions", err)
	}
	return missions, nil
}

// UpdateMission applies a partial update. Creator only; a changed
// assignee set is re-validated against the matrix before anything is
// written.
func (s *Service) UpdateMission(actor Actor, missionID int64, dto UpdateMissionDTO, uploads []*storage.Upload) (*Mission, error) {
	m, err := s.repo.GetByID(missionID)
	if err != nil {
		return nil, internal.ErrMissionNotFound
	}

	if !m.CanEdit(actor.ID) {
		s.logger.Warn("mission edit denied", "mission_id", missionID, "user_id", actor.ID)
		return nil, internal.ErrCannotEditMission
	}

	var newAssignees []*user.User
	if dto.DueTo != nil {
		assigneeIDs := dto.DueTo.Deduplicate()
		assignees, err := s.validateAssignees(actor, assigneeIDs)
		if err != nil {
			return nil, err
		}

		previous := make(map[int64]bool, len(m.DueTo))
		for _, u := range m.DueTo {
			previous[u.ID] = true
		}
		for _, a := range assignees {
			if !previous[a.ID] {
				newAssignees = append(newAssignees, a)
			}
		}

		m.DueTo = summaries(assignees)
	}

	if dto.Description != nil {
		m.Description = *dto.Description
	}
	if dto.AssignedDate != nil {
		if dto.AssignedDate.IsZero() {
			return nil, internal.NewValidationFieldError("assigned_date", "assigned_date cannot be empty", internal.ErrCodeInvalidDate)
		}
		m.AssignedDate = dto.AssignedDate.Time
	}
	if dto.EndDate != nil {
		if dto.EndDate.IsZero() {
			return nil, internal.NewValidationFieldError("end_date", "end_date cannot be empty", internal.ErrCodeInvalidDate)
		}
		m.EndDate = dto.EndDate.Time
	}
	if dto.FromTo != nil {
		m.FromTo = *dto.FromTo
	}

	if err := s.repo.Update(m); err != nil {
		s.logger.Error("failed to update mission", "error", err, "mission_id", missionID)
		return nil, internal.NewInternalError("failed to update mission", err)
	}

	if err := s.appendAttachments(m, uploads); err != nil {
		return nil, err
	}

	s.logger.Info("mission updated", "mission_id", missionID, "user_id", actor.ID)

	for _, a := range newAssignees {
		s.bus.Publish(context.Background(), events.NewMissionAssignedEvent(m.ID, a.ID, m.Description))
	}

	return s.repo.GetByID(missionID)
}

// ToggleComplete flips the completed flag. Assignees only: authorship
// grants edit rights, not completion rights. The flip itself is a single
// atomic statement in the repository so concurrent toggles cannot lose
// updates.
func (s *Service) ToggleComplete(actor Actor, missionID int64) (*Mission, error) {
	m, err := s.repo.GetByID(missionID)
	if err != nil {
		return nil, internal.ErrMissionNotFound
	}

	if !m.CanComplete(actor.ID) {
		s.logger.Warn("mission completion denied", "mission_id", missionID, "user_id", actor.ID)
		return nil, internal.ErrCannotCompleteMission
	}

	if err := s.repo.ToggleComplete(missionID); err != nil {
		s.logger.Error("failed to toggle mission completion", "error", err, "mission_id", missionID)
		return nil, internal.NewInternalError("failed to toggle completion", err)
	}

	updated, err := s.repo.GetByID(missionID)
	if err != nil {
		return nil, internal.ErrMissionNotFound
	}

	s.logger.Info("mission completion toggled",
		"mission_id", missionID,
		"user_id", actor.ID,
		"completed", updated.Completed)

	if updated.Completed {
		s.bus.Publish(context.Background(), events.NewMissionCompletedEvent(missionID, actor.ID))
	}

	return updated, nil
}

// DeleteMission removes a mission; attachments go with it via the
// cascade, and their stored files are cleaned up best-effort.
func (s *Service) DeleteMission(actor Actor, missionID int64) error {
	m, err := s.repo.GetByID(missionID)
	if err != nil {
		return internal.ErrMissionNotFound
	}

	if !m.CanEdit(actor.ID) {
		s.logger.Warn("mission delete denied", "mission_id", missionID, "user_id", actor.ID)
		return internal.ErrCannotEditMission
	}

	if err := s.repo.Delete(missionID); err != nil {
		s.logger.Error("failed to delete mission", "error", err, "mission_id", missionID)
		return internal.NewInternalError("failed to delete mission", err)
	}

	for _, a := range m.Attachments {
		if err := s.files.Remove(a.FilePath); err != nil {
			s.logger.Warn("failed to remove attachment file", "path", a.FilePath, "error", err)
		}
	}

	s.logger.Info("mission deleted", "mission_id", missionID, "user_id", actor.ID)

	return nil
}

// appendAttachments stores uploads and records one attachment row each.
// Attachments are additive only; nothing here ever replaces or removes.
func (s *Service) appendAttachments(m *Mission, uploads []*storage.Upload) error {
	if len(uploads) == 0 {
		return nil
	}

	attachments := make([]*Attachment, 0, len(uploads))
	for _, up := range uploads {
		path, err := s.files.Save("mission_files", up.FileName, up.Content)
		if err != nil {
			s.logger.Error("failed to store attachment", "error", err, "mission_id", m.ID, "file", up.FileName)
			return internal.NewInternalError("failed to store attachment", err)
		}
		attachments = append(attachments, &Attachment{
			FilePath:   path,
			FileName:   up.FileName,
			UploadedAt: time.Now(),
		})
	}

	if err := s.repo.AddAttachments(m.ID, attachments); err != nil {
		s.logger.Error("failed to record attachments", "error", err, "mission_id", m.ID)
		return internal.NewInternalError("failed to record attachments", err)
	}

	return nil
}

func summaries(users []*user.User) []user.Summary {
	out := make([]user.Summary, len(users))
	for i, u := range users {
		out[i] = u.Summary()
	}
	return out
}

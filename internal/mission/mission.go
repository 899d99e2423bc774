package mission

import (
	"fmt"
	"strings"
	"time"

	missionDatamodel "github.com/frahmantamala/mission-management/internal/core/datamodel/mission"
	userDatamodel "github.com/frahmantamala/mission-management/internal/core/datamodel/user"
	"github.com/frahmantamala/mission-management/internal/user"
)

// Mission is a task with a date range, a creator and a set of assignees.
// Authorship and assignment carry different rights: the creator edits,
// assignees complete. The two only overlap if the creator assigned
// themselves.
type Mission struct {
	ID           int64     `json:"id"`
	Description  string    `json:"description,omitempty"`
	AssignedDate time.Time `json:"-"`
	EndDate      time.Time `json:"-"`
	FromTo       string    `json:"from_to,omitempty"`
	Completed    bool      `json:"completed"`

	// CreatedByID is nil once the creating user has been deleted; the
	// mission itself survives.
	CreatedByID *int64         `json:"-"`
	CreatedBy   *user.Summary  `json:"created_by,omitempty"`
	DueTo       []user.Summary `json:"assignees"`
	Attachments []Attachment   `json:"attachments"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Attachment struct {
	ID         int64     `json:"id"`
	FilePath   string    `json:"file"`
	FileName   string    `json:"file_name"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// CanView reports whether the user may see this mission: its creator or
// any of its assignees.
func (m *Mission) CanView(userID int64) bool {
	if m.CreatedByID != nil && *m.CreatedByID == userID {
		return true
	}
	return m.IsAssignee(userID)
}

// CanEdit reports whether the user may alter mission fields. Creator
// only; assignment grants no edit rights.
func (m *Mission) CanEdit(userID int64) bool {
	return m.CreatedByID != nil && *m.CreatedByID == userID
}

// CanComplete reports whether the user may toggle completion. Assignees
// only; the creator is excluded unless they assigned themselves.
func (m *Mission) CanComplete(userID int64) bool {
	return m.IsAssignee(userID)
}

func (m *Mission) IsAssignee(userID int64) bool {
	for _, u := range m.DueTo {
		if u.ID == userID {
			return true
		}
	}
	return false
}

// AssignmentError reports the usernames the actor is not allowed to
// assign to. The whole operation is rejected; there is no partial
// assignment.
type AssignmentError struct {
	InvalidUsernames []string
}

func (e *AssignmentError) Error() string {
	return fmt.Sprintf("cannot assign mission to: %s", strings.Join(e.InvalidUsernames, ", "))
}

func ToDataModel(m *Mission) *missionDatamodel.Mission {
	dm := &missionDatamodel.Mission{
		ID:           m.ID,
		AssignedDate: m.AssignedDate,
		EndDate:      m.EndDate,
		Completed:    m.Completed,
		CreatedByID:  m.CreatedByID,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
	if m.Description != "" {
		desc := m.Description
		dm.Description = &desc
	}
	if m.FromTo != "" {
		fromTo := m.FromTo
		dm.FromTo = &fromTo
	}
	dm.DueTo = make([]userDatamodel.User, len(m.DueTo))
	for i, u := range m.DueTo {
		dm.DueTo[i] = userDatamodel.User{ID: u.ID}
	}
	return dm
}

func FromDataModel(dm *missionDatamodel.Mission) *Mission {
	m := &Mission{
		ID:           dm.ID,
		AssignedDate: dm.AssignedDate,
		EndDate:      dm.EndDate,
		Completed:    dm.Completed,
		CreatedByID:  dm.CreatedByID,
		DueTo:        make([]user.Summary, len(dm.DueTo)),
		Attachments:  make([]Attachment, len(dm.Attachments)),
		CreatedAt:    dm.CreatedAt,
		UpdatedAt:    dm.UpdatedAt,
	}
	if dm.Description != nil {
		m.Description = *dm.Description
	}
	if dm.FromTo != nil {
		m.FromTo = *dm.FromTo
	}
	if dm.CreatedBy != nil {
		creator := user.FromDataModel(dm.CreatedBy).Summary()
		m.CreatedBy = &creator
	}
	for i := range dm.DueTo {
		m.DueTo[i] = user.FromDataModel(&dm.DueTo[i]).Summary()
	}
	for i, a := range dm.Attachments {
		m.Attachments[i] = Attachment{
			ID:         a.ID,
			FilePath:   a.FilePath,
			FileName:   a.FileName,
			UploadedAt: a.UploadedAt,
		}
	}
	return m
}

func FromDataModelSlice(missions []*missionDatamodel.Mission) []*Mission {
	result := make([]*Mission, len(missions))
	for i, dm := range missions {
		result[i] = FromDataModel(dm)
	}
	return result
}

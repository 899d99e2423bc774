package mission

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/frahmantamala/mission-management/internal/user"
)

const dateLayout = "2006-01-02"

// DateOnly marshals as a bare calendar date.
type DateOnly struct {
	time.Time
}

func (d *DateOnly) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	d.Time = t
	return nil
}

func (d DateOnly) MarshalJSON() ([]byte, error) {
	if d.Time.IsZero() {
		return []byte(`null`), nil
	}
	return json.Marshal(d.Time.Format(dateLayout))
}

// UserIDList normalizes the assignee field at the boundary: clients send
// a single id, a numeric string, or a list, and everything past the DTO
// sees one flat id set.
type UserIDList []int64

func (l *UserIDList) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	ids, err := coerceIDs(raw)
	if err != nil {
		return err
	}
	*l = ids
	return nil
}

func coerceIDs(raw interface{}) ([]int64, error) {
	switch v := raw.(type) {
	case nil:
		return []int64{}, nil
	case float64:
		return []int64{int64(v)}, nil
	case string:
		if v == "" {
			return []int64{}, nil
		}
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid user id %q", v)
		}
		return []int64{id}, nil
	case []interface{}:
		ids := make([]int64, 0, len(v))
		for _, item := range v {
			sub, err := coerceIDs(item)
			if err != nil {
				return nil, err
			}
			ids = append(ids, sub...)
		}
		return ids, nil
	default:
		return nil, fmt.Errorf("invalid user id value %v", raw)
	}
}

// Deduplicate returns the list with duplicates removed, order preserved.
func (l UserIDList) Deduplicate() []int64 {
	seen := make(map[int64]bool, len(l))
	out := make([]int64, 0, len(l))
	for _, id := range l {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// CreateMissionDTO represents the request payload for creating a mission
type CreateMissionDTO struct {
	Description  string     `json:"description"`
	AssignedDate DateOnly   `json:"assigned_date"`
	EndDate      DateOnly   `json:"end_date"`
	FromTo       string     `json:"from_to"`
	DueTo        UserIDList `json:"due_to"`
}

func (dto CreateMissionDTO) Validate() error {
	if dto.AssignedDate.IsZero() {
		return errors.New("assigned_date is required")
	}
	if dto.EndDate.IsZero() {
		return errors.New("end_date is required")
	}
	return nil
}

// UpdateMissionDTO carries partial mission updates; nil fields are left
// untouched. A non-nil DueTo replaces the whole assignee set and is
// re-validated against the role matrix.
type UpdateMissionDTO struct {
	Description  *string     `json:"description,omitempty"`
	AssignedDate *DateOnly   `json:"assigned_date,omitempty"`
	EndDate      *DateOnly   `json:"end_date,omitempty"`
	FromTo       *string     `json:"from_to,omitempty"`
	DueTo        *UserIDList `json:"due_to,omitempty"`
}

// MissionResponse is the per-requester view of a mission: assignee and
// creator details are nested, and can_edit/can_complete are computed for
// the requesting user so clients can gate their UI.
type MissionResponse struct {
	ID           int64          `json:"id"`
	Description  string         `json:"description,omitempty"`
	AssignedDate string         `json:"assigned_date"`
	EndDate      string         `json:"end_date"`
	FromTo       string         `json:"from_to,omitempty"`
	Completed    bool           `json:"completed"`
	CreatedBy    *user.Summary  `json:"created_by"`
	Assignees    []user.Summary `json:"assignees"`
	Attachments  []Attachment   `json:"attachments"`
	CanEdit      bool           `json:"can_edit"`
	CanComplete  bool           `json:"can_complete"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// ToResponse renders the mission from the requester's perspective.
func (m *Mission) ToResponse(requesterID int64) MissionResponse {
	assignees := m.DueTo
	if assignees == nil {
		assignees = []user.Summary{}
	}
	attachments := m.Attachments
	if attachments == nil {
		attachments = []Attachment{}
	}
	return MissionResponse{
		ID:           m.ID,
		Description:  m.Description,
		AssignedDate: m.AssignedDate.Format(dateLayout),
		EndDate:      m.EndDate.Format(dateLayout),
		FromTo:       m.FromTo,
		Completed:    m.Completed,
		CreatedBy:    m.CreatedBy,
		Assignees:    assignees,
		Attachments:  attachments,
		CanEdit:      m.CanEdit(requesterID),
		CanComplete:  m.CanComplete(requesterID),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func ToResponseSlice(missions []*Mission, requesterID int64) []MissionResponse {
	result := make([]MissionResponse, len(missions))
	for i, m := range missions {
		result[i] = m.ToResponse(requesterID)
	}
	return result
}

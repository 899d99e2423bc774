package user

import (
	"errors"
	"time"

	userDatamodel "github.com/frahmantamala/mission-management/internal/core/datamodel/user"
)

type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Title        string `json:"title,omitempty"`
	Role         Role   `json:"role"`
	Department   string `json:"department,omitempty"`
	Phone        string `json:"phone,omitempty"`
	ProfilePhoto string `json:"profile_photo,omitempty"`
	IsActive     bool   `json:"is_active"`
	IsStaff      bool   `json:"is_staff"`

	EmailNotifications bool   `json:"email_notifications"`
	TaskReminders      bool   `json:"task_reminders"`
	DeadlineAlerts     bool   `json:"deadline_alerts"`
	NotificationEmail  string `json:"notification_email,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Summary is the nested representation exposed inside mission objects and
// the organization chart.
type Summary struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      Role   `json:"role"`
}

func (u *User) Summary() Summary {
	return Summary{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
	}
}

// NotificationAddress is where mission notifications for this user go.
func (u *User) NotificationAddress() string {
	if u.NotificationEmail != "" {
		return u.NotificationEmail
	}
	return u.Email
}

var ErrNotFound = errors.New("user not found")

func ToDataModel(u *User) *userDatamodel.User {
	return &userDatamodel.User{
		ID:                 u.ID,
		Username:           u.Username,
		Email:              u.Email,
		PasswordHash:       u.PasswordHash,
		FirstName:          u.FirstName,
		LastName:           u.LastName,
		Title:              u.Title,
		Role:               string(u.Role),
		Department:         u.Department,
		Phone:              u.Phone,
		ProfilePhoto:       u.ProfilePhoto,
		IsActive:           u.IsActive,
		IsStaff:            u.IsStaff,
		EmailNotifications: u.EmailNotifications,
		TaskReminders:      u.TaskReminders,
		DeadlineAlerts:     u.DeadlineAlerts,
		NotificationEmail:  u.NotificationEmail,
		CreatedAt:          u.CreatedAt,
		UpdatedAt:          u.UpdatedAt,
	}
}

func FromDataModel(u *userDatamodel.User) *User {
	return &User{
		ID:                 u.ID,
		Username:           u.Username,
		Email:              u.Email,
		PasswordHash:       u.PasswordHash,
		FirstName:          u.FirstName,
		LastName:           u.LastName,
		Title:              u.Title,
		Role:               Role(u.Role),
		Department:         u.Department,
		Phone:              u.Phone,
		ProfilePhoto:       u.ProfilePhoto,
		IsActive:           u.IsActive,
		IsStaff:            u.IsStaff,
		EmailNotifications: u.EmailNotifications,
		TaskReminders:      u.TaskReminders,
		DeadlineAlerts:     u.DeadlineAlerts,
		NotificationEmail:  u.NotificationEmail,
		CreatedAt:          u.CreatedAt,
		UpdatedAt:          u.UpdatedAt,
	}
}

func FromDataModelSlice(users []*userDatamodel.User) []*User {
	result := make([]*User, len(users))
	for i, u := range users {
		result[i] = FromDataModel(u)
	}
	return result
}

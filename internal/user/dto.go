package user

import (
	"errors"
	"strings"
)

// RegisterDTO is the transport shape for POST /user/register.
type RegisterDTO struct {
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Title      string `json:"title,omitempty"`
	Department string `json:"department,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

func (d RegisterDTO) Validate() error {
	if strings.TrimSpace(d.Username) == "" {
		return errors.New("username is required")
	}
	if strings.TrimSpace(d.Email) == "" {
		return errors.New("email is required")
	}
	if d.Password == "" {
		return errors.New("password is required")
	}
	if strings.TrimSpace(d.FirstName) == "" {
		return errors.New("first_name is required")
	}
	if strings.TrimSpace(d.LastName) == "" {
		return errors.New("last_name is required")
	}
	return nil
}

// UpdateProfileDTO carries partial profile updates. Nil fields are left
// untouched so PATCH semantics fall out naturally.
type UpdateProfileDTO struct {
	FirstName  *string `json:"first_name,omitempty"`
	LastName   *string `json:"last_name,omitempty"`
	Title      *string `json:"title,omitempty"`
	Department *string `json:"department,omitempty"`
	Phone      *string `json:"phone,omitempty"`

	EmailNotifications *bool   `json:"email_notifications,omitempty"`
	TaskReminders      *bool   `json:"task_reminders,omitempty"`
	DeadlineAlerts     *bool   `json:"deadline_alerts,omitempty"`
	NotificationEmail  *string `json:"notification_email,omitempty"`
}

type ChangePasswordDTO struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

func (d ChangePasswordDTO) Validate() error {
	if d.OldPassword == "" {
		return errors.New("old_password is required")
	}
	if d.NewPassword == "" {
		return errors.New("new_password is required")
	}
	return nil
}

// RegisteredResponse is the created-user summary returned on 201.
type RegisteredResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      Role   `json:"role"`
}

// OrganizationChart groups all users by role for display.
type OrganizationChart struct {
	CEO      []Summary `json:"CEO"`
	Manager  []Summary `json:"MANAGER"`
	Employee []Summary `json:"EMPLOYEE"`
}

package user

import "time"

// User is the persistence model backing the users table.
type User struct {
	ID           int64     `gorm:"primaryKey"`
	Username     string    `gorm:"uniqueIndex;size:150;not null"`
	Email        string    `gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	FirstName    string    `gorm:"column:first_name;size:150"`
	LastName     string    `gorm:"column:last_name;size:150"`
	Title        string    `gorm:"size:100"`
	Role         string    `gorm:"size:20;not null;default:'EMPLOYEE'"`
	Department   string    `gorm:"size:100"`
	Phone        string    `gorm:"size:20"`
	ProfilePhoto string    `gorm:"column:profile_photo;size:255"`
	IsActive     bool      `gorm:"column:is_active;not null;default:true"`
	IsStaff      bool      `gorm:"column:is_staff;not null;default:false"`

	EmailNotifications bool   `gorm:"column:email_notifications;not null;default:true"`
	TaskReminders      bool   `gorm:"column:task_reminders;not null;default:true"`
	DeadlineAlerts     bool   `gorm:"column:deadline_alerts;not null;default:true"`
	NotificationEmail  string `gorm:"column:notification_email;size:255"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (User) TableName() string {
	return "users"
}

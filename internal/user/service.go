package user

import (
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/mission-management/internal"
	"github.com/frahmantamala/mission-management/internal/storage"
)

// Repository defines the data access methods for users
type Repository interface {
	Create(u *User) error
	GetByID(id int64) (*User, error)
	GetByIDs(ids []int64) ([]*User, error)
	GetByUsername(username string) (*User, error)
	UsernameExists(username string) (bool, error)
	EmailExists(email string) (bool, error)
	Update(u *User) error
	UpdatePassword(userID int64, passwordHash string) error
	ListActive() ([]*User, error)
	ListAll() ([]*User, error)
}

// Service handles user business logic: registration, profile management
// and the role-based lookups used by mission assignment.
type Service struct {
	repo               Repository
	files              storage.FileStore
	allowedEmailDomain string
	minPasswordLength  int
	bcryptCost         int
	logger             *slog.Logger
}

func NewService(repo Repository, files storage.FileStore, cfg internal.RegistrationConfig, bcryptCost int, logger *slog.Logger) *Service {
	return &Service{
		repo:               repo,
		files:              files,
		allowedEmailDomain: strings.ToLower(cfg.AllowedEmailDomain),
		minPasswordLength:  cfg.MinPasswordLength,
		bcryptCost:         bcryptCost,
		logger:             logger,
	}
}

// Register creates a new account. Role is always EMPLOYEE here; anything
// else requires an administrative actor and is out of this path entirely.
func (s *Service) Register(dto RegisterDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	email := strings.ToLower(strings.TrimSpace(dto.Email))
	if !strings.HasSuffix(email, s.allowedEmailDomain) {
		return nil, internal.NewValidationFieldError("email",
			fmt.Sprintf("email must end with %s", s.allowedEmailDomain),
			internal.ErrCodeInvalidEmailDomain)
	}

	if len(dto.Password) < s.minPasswordLength {
		return nil, internal.NewValidationFieldError("password",
			fmt.Sprintf("password must be at least %d characters", s.minPasswordLength),
			internal.ErrCodePasswordTooShort)
	}

	if exists, err := s.repo.UsernameExists(dto.Username); err != nil {
		return nil, internal.NewInternalError("failed to check username", err)
	} else if exists {
		return nil, internal.NewConflictError("username is already taken", internal.ErrCodeDuplicateUsername)
	}

	if exists, err := s.repo.EmailExists(email); err != nil {
		return nil, internal.NewInternalError("failed to check email", err)
	} else if exists {
		return nil, internal.NewConflictError("email is already registered", internal.ErrCodeDuplicateEmail)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), s.bcryptCost)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	u := &User{
		Username:           strings.TrimSpace(dto.Username),
		Email:              email,
		PasswordHash:       string(hash),
		FirstName:          strings.TrimSpace(dto.FirstName),
		LastName:           strings.TrimSpace(dto.LastName),
		Title:              dto.Title,
		Role:               RoleEmployee,
		Department:         dto.Department,
		Phone:              dto.Phone,
		IsActive:           true,
		EmailNotifications: true,
		TaskReminders:      true,
		DeadlineAlerts:     true,
	}

	if err := s.repo.Create(u); err != nil {
		s.logger.Error("failed to create user", "error", err, "username", u.Username)
		return nil, internal.NewInternalError("failed to create user", err)
	}

	s.logger.Info("user registered", "user_id", u.ID, "username", u.Username)

	return u, nil
}

func (s *Service) GetByID(userID int64) (*User, error) {
	u, err := s.repo.GetByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return u, nil
}

// UpdateProfile applies a partial profile update for the acting user. A
// non-nil photo is stored and replaces the previous one.
func (s *Service) UpdateProfile(userID int64, dto UpdateProfileDTO, photo *storage.Upload) (*User, error) {
	u, err := s.repo.GetByID(userID)
	if err != nil {
		return nil, internal.ErrUserNotFound
	}

	if dto.FirstName != nil {
		u.FirstName = *dto.FirstName
	}
	if dto.LastName != nil {
		u.LastName = *dto.LastName
	}
	if dto.Title != nil {
		u.Title = *dto.Title
	}
	if dto.Department != nil {
		u.Department = *dto.Department
	}
	if dto.Phone != nil {
		u.Phone = *dto.Phone
	}
	if dto.EmailNotifications != nil {
		u.EmailNotifications = *dto.EmailNotifications
	}
	if dto.TaskReminders != nil {
		u.TaskReminders = *dto.TaskReminders
	}
	if dto.DeadlineAlerts != nil {
		u.DeadlineAlerts = *dto.DeadlineAlerts
	}
	if dto.NotificationEmail != nil {
		u.NotificationEmail = *dto.NotificationEmail
	}

	if photo != nil {
		oldPhoto := u.ProfilePhoto
		path, err := s.files.Save("profile_photos", photo.FileName, photo.Content)
		if err != nil {
			return nil, internal.NewInternalError("failed to store profile photo", err)
		}
		u.ProfilePhoto = path
		if oldPhoto != "" {
			if err := s.files.Remove(oldPhoto); err != nil {
				s.logger.Warn("failed to remove previous profile photo", "path", oldPhoto, "error", err)
			}
		}
	}

	if err := s.repo.Update(u); err != nil {
		s.logger.Error("failed to update profile", "error", err, "user_id", userID)
		return nil, internal.NewInternalError("failed to update profile", err)
	}

	s.logger.Info("profile updated", "user_id", userID)

	return u, nil
}

// ChangePassword verifies the old password before setting the new one.
func (s *Service) ChangePassword(userID int64, dto ChangePasswordDTO) error {
	if err := dto.Validate(); err != nil {
		return internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	u, err := s.repo.GetByID(userID)
	if err != nil {
		return internal.ErrUserNotFound
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(dto.OldPassword)); err != nil {
		return internal.NewValidationFieldError("old_password", "old password is incorrect", internal.ErrCodePasswordMismatch)
	}

	if len(dto.NewPassword) < s.minPasswordLength {
		return internal.NewValidationFieldError("new_password",
			fmt.Sprintf("password must be at least %d characters", s.minPasswordLength),
			internal.ErrCodePasswordTooShort)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.NewPassword), s.bcryptCost)
	if err != nil {
		return internal.NewInternalError("failed to hash password", err)
	}

	if err := s.repo.UpdatePassword(userID, string(hash)); err != nil {
		s.logger.Error("failed to update password", "error", err, "user_id", userID)
		return internal.NewInternalError("failed to update password", err)
	}

	s.logger.Info("password changed", "user_id", userID)

	return nil
}

// AssignableUsers returns the active users the actor may assign missions
// to, per the role matrix.
func (s *Service) AssignableUsers(actorRole Role) ([]*User, error) {
	users, err := s.repo.ListActive()
	if err != nil {
		return nil, fmt.Errorf("failed to list active users: %w", err)
	}

	assignable := make([]*User, 0, len(users))
	for _, u := range users {
		if actorRole.CanAssignTo(u.Role) {
			assignable = append(assignable, u)
		}
	}

	return assignable, nil
}

// OrganizationChart groups every user under their role.
func (s *Service) OrganizationChart() (*OrganizationChart, error) {
	users, err := s.repo.ListAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	chart := &OrganizationChart{
		CEO:      []Summary{},
		Manager:  []Summary{},
		Employee: []Summary{},
	}
	for _, u := range users {
		switch u.Role {
		case RoleCEO:
			chart.CEO = append(chart.CEO, u.Summary())
		case RoleManager:
			chart.Manager = append(chart.Manager, u.Summary())
		default:
			chart.Employee = append(chart.Employee, u.Summary())
		}
	}

	return chart, nil
}

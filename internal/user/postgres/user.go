package postgres

import (
	"errors"

	"gorm.io/gorm"

	userDatamodel "github.com/frahmantamala/mission-management/internal/core/datamodel/user"
	"github.com/frahmantamala/mission-management/internal/user"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(u *user.User) error {
	dm := user.ToDataModel(u)
	if err := r.db.Create(dm).Error; err != nil {
		return err
	}
	u.ID = dm.ID
	u.CreatedAt = dm.CreatedAt
	u.UpdatedAt = dm.UpdatedAt
	return nil
}

func (r *Repository) GetByID(id int64) (*user.User, error) {
	var dm userDatamodel.User
	if err := r.db.First(&dm, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, err
	}
	return user.FromDataModel(&dm), nil
}

func (r *Repository) GetByIDs(ids []int64) ([]*user.User, error) {
	if len(ids) == 0 {
		return []*user.User{}, nil
	}
	var dms []*userDatamodel.User
	if err := r.db.Where("id IN ?", ids).Find(&dms).Error; err != nil {
		return nil, err
	}
	return user.FromDataModelSlice(dms), nil
}

func (r *Repository) GetByUsername(username string) (*user.User, error) {
	var dm userDatamodel.User
	if err := r.db.First(&dm, "username = ?", username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, err
	}
	return user.FromDataModel(&dm), nil
}

func (r *Repository) UsernameExists(username string) (bool, error) {
	var count int64
	err := r.db.Model(&userDatamodel.User{}).Where("username = ?", username).Count(&count).Error
	return count > 0, err
}

func (r *Repository) EmailExists(email string) (bool, error) {
	var count int64
	err := r.db.Model(&userDatamodel.User{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

func (r *Repository) Update(u *user.User) error {
	dm := user.ToDataModel(u)
	return r.db.Model(&userDatamodel.User{ID: dm.ID}).Updates(map[string]interface{}{
		"first_name":          dm.FirstName,
		"last_name":           dm.LastName,
		"title":               dm.Title,
		"department":          dm.Department,
		"phone":               dm.Phone,
		"profile_photo":       dm.ProfilePhoto,
		"email_notifications": dm.EmailNotifications,
		"task_reminders":      dm.TaskReminders,
		"deadline_alerts":     dm.DeadlineAlerts,
		"notification_email":  dm.NotificationEmail,
	}).Error
}

func (r *Repository) UpdatePassword(userID int64, passwordHash string) error {
	return r.db.Model(&userDatamodel.User{ID: userID}).
		Update("password_hash", passwordHash).Error
}

func (r *Repository) ListActive() ([]*user.User, error) {
	var dms []*userDatamodel.User
	if err := r.db.Where("is_active = ?", true).Order("username").Find(&dms).Error; err != nil {
		return nil, err
	}
	return user.FromDataModelSlice(dms), nil
}

func (r *Repository) ListAll() ([]*user.User, error) {
	var dms []*userDatamodel.User
	if err := r.db.Order("username").Find(&dms).Error; err != nil {
		return nil, err
	}
	return user.FromDataModelSlice(dms), nil
}

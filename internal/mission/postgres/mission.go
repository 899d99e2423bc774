package postgres

import (
	"errors"
	"time"

	"gorm.io/gorm"

	missionDatamodel "github.com/frahmantamala/mission-management/internal/core/datamodel/mission"
	userDatamodel "github.com/frahmantamala/mission-management/internal/core/datamodel/user"
	"github.com/frahmantamala/mission-management/internal/mission"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(m *mission.Mission) error {
	dm := mission.ToDataModel(m)
	if err := r.db.Omit("DueTo.*").Create(dm).Error; err != nil {
		return err
	}
	m.ID = dm.ID
	return nil
}

func (r *Repository) GetByID(id int64) (*mission.Mission, error) {
	var dm missionDatamodel.Mission
	err := r.db.
		Preload("CreatedBy").
		Preload("DueTo").
		Preload("Attachments").
		First(&dm, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, err
	}
	return mission.FromDataModel(&dm), nil
}

// ListForUser returns missions the user created or is assigned to.
func (r *Repository) ListForUser(userID int64, limit, offset int) ([]*mission.Mission, error) {
	var dms []*missionDatamodel.Mission
	err := r.db.
		Preload("CreatedBy").
		Preload("DueTo").
		Preload("Attachments").
		Where("created_by_id = ? OR id IN (?)",
			userID,
			r.db.Table("mission_assignees").Select("mission_id").Where("user_id = ?", userID),
		).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&dms).Error
	if err != nil {
		return nil, err
	}
	return mission.FromDataModelSlice(dms), nil
}

func (r *Repository) ListAll(limit, offset int) ([]*mission.Mission, error) {
	var dms []*missionDatamodel.Mission
	err := r.db.
		Preload("CreatedBy").
		Preload("DueTo").
		Preload("Attachments").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&dms).Error
	if err != nil {
		return nil, err
	}
	return mission.FromDataModelSlice(dms), nil
}

// Update writes scalar columns and replaces the assignee set in one
// transaction.
func (r *Repository) Update(m *mission.Mission) error {
	dm := mission.ToDataModel(m)
	return r.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"description":   dm.Description,
			"assigned_date": dm.AssignedDate,
			"end_date":      dm.EndDate,
			"from_to":       dm.FromTo,
			"updated_at":    time.Now(),
		}
		if err := tx.Model(&missionDatamodel.Mission{ID: dm.ID}).Updates(updates).Error; err != nil {
			return err
		}

		assignees := make([]userDatamodel.User, len(dm.DueTo))
		copy(assignees, dm.DueTo)
		return tx.Model(&missionDatamodel.Mission{ID: dm.ID}).
			Association("DueTo").
			Replace(assignees)
	})
}

func (r *Repository) AddAttachments(missionID int64, attachments []*mission.Attachment) error {
	if len(attachments) == 0 {
		return nil
	}
	rows := make([]missionDatamodel.Attachment, len(attachments))
	for i, a := range attachments {
		rows[i] = missionDatamodel.Attachment{
			MissionID:  missionID,
			FilePath:   a.FilePath,
			FileName:   a.FileName,
			UploadedAt: a.UploadedAt,
		}
	}
	if err := r.db.Create(&rows).Error; err != nil {
		return err
	}
	for i := range attachments {
		attachments[i].ID = rows[i].ID
	}
	return nil
}

// ToggleComplete flips the flag in a single statement so concurrent
// toggles serialize at the database instead of losing updates.
func (r *Repository) ToggleComplete(id int64) error {
	result := r.db.Exec(
		"UPDATE missions SET completed = NOT completed, updated_at = ? WHERE id = ?",
		time.Now(), id,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes the mission, its join rows and its attachment rows.
// Deletes are explicit rather than relying on database cascades so the
// behavior holds on backends without FK enforcement.
func (r *Repository) Delete(id int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM mission_assignees WHERE mission_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Where("mission_id = ?", id).Delete(&missionDatamodel.Attachment{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&missionDatamodel.Mission{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

package mission

import (
	"time"

	userDatamodel "github.com/frahmantamala/mission-management/internal/core/datamodel/user"
)

// Mission is the persistence model backing the missions table.
//
// created_by is nullable: missions outlive their creator, the column is
// cleared when the creating user is deleted. Assignees live in the
// mission_assignees join table; attachments are cascade-deleted with the
// mission.
type Mission struct {
	ID           int64      `gorm:"primaryKey"`
	Description  *string    `gorm:"type:text"`
	AssignedDate time.Time  `gorm:"column:assigned_date;type:date;not null"`
	EndDate      time.Time  `gorm:"column:end_date;type:date;not null"`
	FromTo       *string    `gorm:"column:from_to;size:255"`
	Completed    bool       `gorm:"not null;default:false"`
	CreatedByID  *int64     `gorm:"column:created_by_id"`

	CreatedBy   *userDatamodel.User  `gorm:"foreignKey:CreatedByID;constraint:OnDelete:SET NULL"`
	DueTo       []userDatamodel.User `gorm:"many2many:mission_assignees;constraint:OnDelete:CASCADE"`
	Attachments []Attachment         `gorm:"foreignKey:MissionID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (Mission) TableName() string {
	return "missions"
}

// Attachment is one uploaded file belonging to a mission. Rows are only
// created as a side effect of mission create/update and only removed by
// the cascade when the mission is deleted.
type Attachment struct {
	ID         int64     `gorm:"primaryKey"`
	MissionID  int64     `gorm:"column:mission_id;not null;index"`
	FilePath   string    `gorm:"column:file_path;size:255;not null"`
	FileName   string    `gorm:"column:file_name;size:255;not null"`
	UploadedAt time.Time `gorm:"column:uploaded_at"`
}

func (Attachment) TableName() string {
	return "mission_attachments"
}

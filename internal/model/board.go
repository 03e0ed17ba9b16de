package model

import (
	"time"

	"github.com/google/uuid"
)

type Board struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"not null;size:128;index"`
	Position  int       `gorm:"not null"`
	Archived  bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time

	Project Project `gorm:"foreignKey:ProjectID"`
	Tasks   []Task  `gorm:"foreignKey:BoardID;constraint:OnDelete:CASCADE"`
}

package model

import (
	"time"

	"github.com/google/uuid"
)

type Project struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Name      string    `gorm:"not null;size:128;index"`
	OwnerID   uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time

	Owner       User         `gorm:"foreignKey:OwnerID"`
	Memberships []Membership `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
	Boards      []Board      `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
}

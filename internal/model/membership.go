package model

import (
	"time"

	"github.com/google/uuid"
)

// Role determines what a member may do within a project and its
// boards and tasks.
type Role string

const (
	RoleOwner  Role = "owner"  // full control, including membership management
	RoleEditor Role = "editor" // may change boards and tasks
	RoleViewer Role = "viewer" // read-only access
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleEditor, RoleViewer:
		return true
	}
	return false
}

// Membership links a user to a project with a role. A user has at
// most one membership per project.
type Membership struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uq_membership_user_project"`
	ProjectID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uq_membership_user_project"`
	Role      Role       `gorm:"not null;check:role IN ('owner', 'editor', 'viewer')"`
	JoinedAt  time.Time  `gorm:"autoCreateTime;index"`
	InvitedBy *uuid.UUID `gorm:"type:uuid"`

	User    User    `gorm:"foreignKey:UserID"`
	Project Project `gorm:"foreignKey:ProjectID"`
}

package model

import (
	"time"

	"github.com/google/uuid"
)

type TaskStatus string

const (
	TaskStatusActive    TaskStatus = "active"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusArchived  TaskStatus = "archived"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusActive, TaskStatusCompleted, TaskStatusArchived:
		return true
	}
	return false
}

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

type Task struct {
	ID          uuid.UUID    `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	BoardID     uuid.UUID    `gorm:"type:uuid;not null;index"`
	Name        string       `gorm:"not null;size:256;index"`
	Description string       `gorm:"size:512"`
	Status      TaskStatus   `gorm:"not null;default:'active';check:status IN ('active', 'completed', 'archived')"`
	Priority    TaskPriority `gorm:"not null;default:'medium';check:priority IN ('low', 'medium', 'high')"`
	AssigneeID  *uuid.UUID   `gorm:"type:uuid"`
	DueDate     *time.Time
	Position    int       `gorm:"not null"`
	Archived    bool      `gorm:"not null;default:false"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt   time.Time

	Board    Board `gorm:"foreignKey:BoardID"`
	Assignee *User `gorm:"foreignKey:AssigneeID"`
}

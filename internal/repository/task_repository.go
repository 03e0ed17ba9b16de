package repository

import (
	"context"
	"errors"

	"taskboard/internal/model"
	"taskboard/internal/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TaskRepository struct {
	db *gorm.DB
}

type TaskFilters struct {
	IncludeArchived bool
	Status          model.TaskStatus
	Priority        model.TaskPriority
	AssigneeID      *uuid.UUID
}

type TaskRepositoryInterface interface {
	Create(ctx context.Context, task *model.Task) error
	GetByID(ctx context.Context, boardID, taskID uuid.UUID) (*model.Task, error)
	List(ctx context.Context, boardID uuid.UUID, filters TaskFilters, p pagination.Params) ([]model.Task, int64, error)
	Update(ctx context.Context, task *model.Task) error
	Delete(ctx context.Context, boardID, taskID uuid.UUID) error
}

var _ TaskRepositoryInterface = (*TaskRepository)(nil)

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create appends the task at the end of its board, same dense-append
// scheme as boards within a project.
func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var next struct {
			Position int
		}
		if err := tx.Model(&model.Task{}).
			Select("COALESCE(MAX(position) + 1, 0) as position").
			Where("board_id = ?", task.BoardID).
			Scan(&next).Error; err != nil {
			return err
		}

		task.Position = next.Position
		return tx.Create(task).Error
	})
}

// GetByID retrieves a task scoped to its board.
func (r *TaskRepository) GetByID(ctx context.Context, boardID, taskID uuid.UUID) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).
		Where("id = ? AND board_id = ?", taskID, boardID).
		First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return &task, nil
}

// List returns a board's tasks with the status/priority/assignee
// filters applied, position-ordered by default.
func (r *TaskRepository) List(ctx context.Context, boardID uuid.UUID, filters TaskFilters, p pagination.Params) ([]model.Task, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("board_id = ?", boardID)

	if !filters.IncludeArchived {
		query = query.Where("archived = ?", false)
	}
	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}
	if filters.Priority != "" {
		query = query.Where("priority = ?", filters.Priority)
	}
	if filters.AssigneeID != nil {
		query = query.Where("assignee_id = ?", *filters.AssigneeID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if p.SortBy == "" {
		query = query.Order("position")
	}

	var tasks []model.Task
	err := query.Scopes(p.Scope(
		"name", "position", "created_at", "updated_at", "due_date", "status", "priority",
	)).Find(&tasks).Error
	return tasks, total, err
}

func (r *TaskRepository) Update(ctx context.Context, task *model.Task) error {
	result := r.db.WithContext(ctx).Save(task)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, boardID, taskID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND board_id = ?", taskID, boardID).
		Delete(&model.Task{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

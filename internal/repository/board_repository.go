package repository

import (
	"context"
	"errors"

	"taskboard/internal/model"
	"taskboard/internal/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BoardRepository struct {
	db *gorm.DB
}

type BoardFilters struct {
	IncludeArchived bool
	Name            string
}

type BoardRepositoryInterface interface {
	Create(ctx context.Context, board *model.Board) error
	GetByID(ctx context.Context, projectID, boardID uuid.UUID) (*model.Board, error)
	List(ctx context.Context, projectID uuid.UUID, filters BoardFilters, p pagination.Params) ([]model.Board, int64, error)
	Update(ctx context.Context, board *model.Board) error
	Delete(ctx context.Context, projectID, boardID uuid.UUID) error
}

var _ BoardRepositoryInterface = (*BoardRepository)(nil)

func NewBoardRepository(db *gorm.DB) *BoardRepository {
	return &BoardRepository{db: db}
}

// Create appends the board at the end of the project's ordering. The
// position read and the insert share a transaction.
func (r *BoardRepository) Create(ctx context.Context, board *model.Board) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var next struct {
			Position int
		}
		if err := tx.Model(&model.Board{}).
			Select("COALESCE(MAX(position) + 1, 0) as position").
			Where("project_id = ?", board.ProjectID).
			Scan(&next).Error; err != nil {
			return err
		}

		board.Position = next.Position
		return tx.Create(board).Error
	})
}

// GetByID retrieves a board scoped to its project.
func (r *BoardRepository) GetByID(ctx context.Context, projectID, boardID uuid.UUID) (*model.Board, error) {
	var board model.Board
	err := r.db.WithContext(ctx).
		Where("id = ? AND project_id = ?", boardID, projectID).
		First(&board).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBoardNotFound
		}
		return nil, err
	}
	return &board, nil
}

// List returns a project's boards, position-ordered unless the caller
// sorts otherwise.
func (r *BoardRepository) List(ctx context.Context, projectID uuid.UUID, filters BoardFilters, p pagination.Params) ([]model.Board, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Board{}).
		Where("project_id = ?", projectID)

	if !filters.IncludeArchived {
		query = query.Where("archived = ?", false)
	}
	if filters.Name != "" {
		query = query.Where("name ILIKE ?", "%"+filters.Name+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if p.SortBy == "" {
		query = query.Order("position")
	}

	var boards []model.Board
	err := query.Scopes(p.Scope("name", "position", "created_at", "updated_at")).Find(&boards).Error
	return boards, total, err
}

func (r *BoardRepository) Update(ctx context.Context, board *model.Board) error {
	result := r.db.WithContext(ctx).Save(board)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBoardNotFound
	}
	return nil
}

// Delete removes a board and, through the FK cascade, its tasks.
func (r *BoardRepository) Delete(ctx context.Context, projectID, boardID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND project_id = ?", boardID, projectID).
		Delete(&model.Board{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBoardNotFound
	}
	return nil
}

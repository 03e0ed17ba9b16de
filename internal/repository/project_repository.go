package repository

import (
	"context"
	"errors"

	"taskboard/internal/model"
	"taskboard/internal/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProjectRepository struct {
	db          *gorm.DB
	members     *MembershipRepository
	maxProjects int
}

type ProjectRepositoryInterface interface {
	CreateWithOwner(ctx context.Context, project *model.Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Project, error)
	ListForUser(ctx context.Context, userID uuid.UUID, nameFilter string, p pagination.Params) ([]model.Project, int64, error)
	Update(ctx context.Context, project *model.Project) error
	Delete(ctx context.Context, id uuid.UUID) error
}

var _ ProjectRepositoryInterface = (*ProjectRepository)(nil)

func NewProjectRepository(db *gorm.DB, members *MembershipRepository, maxProjects int) *ProjectRepository {
	return &ProjectRepository{
		db:          db,
		members:     members,
		maxProjects: maxProjects,
	}
}

// CreateWithOwner inserts the project and its owner membership in one
// transaction. A project never exists without at least one owner.
func (r *ProjectRepository) CreateWithOwner(ctx context.Context, project *model.Project) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Membership{}).
			Where("user_id = ?", project.OwnerID).
			Count(&count).Error; err != nil {
			return err
		}
		if count >= int64(r.maxProjects) {
			return ErrProjectLimit
		}

		if err := tx.Create(project).Error; err != nil {
			return err
		}

		return r.members.CreateOwner(tx, project.ID, project.OwnerID)
	})
}

func (r *ProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	var project model.Project
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&project).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return &project, nil
}

// ListForUser returns the projects the user is a member of, filtered
// by name and paginated.
func (r *ProjectRepository) ListForUser(ctx context.Context, userID uuid.UUID, nameFilter string, p pagination.Params) ([]model.Project, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Project{}).
		Joins("JOIN memberships ON memberships.project_id = projects.id").
		Where("memberships.user_id = ?", userID)

	if nameFilter != "" {
		query = query.Where("projects.name ILIKE ?", "%"+nameFilter+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var projects []model.Project
	err := query.Scopes(p.Scope("name", "created_at")).Find(&projects).Error
	return projects, total, err
}

func (r *ProjectRepository) Update(ctx context.Context, project *model.Project) error {
	result := r.db.WithContext(ctx).Save(project)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProjectNotFound
	}
	return nil
}

// Delete removes the project; memberships, boards and tasks go with
// it through the FK cascades.
func (r *ProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.Project{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProjectNotFound
	}
	return nil
}

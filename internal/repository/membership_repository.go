package repository

import (
	"context"
	"errors"

	"taskboard/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MembershipRepository is the only writer of membership rows. Every
// mutation goes through it so the last-owner invariant is enforced in
// one place.
type MembershipRepository struct {
	db *gorm.DB
}

type MembershipRepositoryInterface interface {
	CreateOwner(tx *gorm.DB, projectID, userID uuid.UUID) error
	Add(ctx context.Context, projectID, userID uuid.UUID, role model.Role, invitedBy uuid.UUID) (*model.Membership, error)
	Remove(ctx context.Context, projectID, userID uuid.UUID) error
	ChangeRole(ctx context.Context, projectID, userID uuid.UUID, newRole model.Role) (*model.Membership, error)
	List(ctx context.Context, projectID uuid.UUID) ([]model.Membership, error)
	Get(ctx context.Context, projectID, userID uuid.UUID) (*model.Membership, error)
}

var _ MembershipRepositoryInterface = (*MembershipRepository)(nil)

func NewMembershipRepository(db *gorm.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

// CreateOwner inserts the owner membership for a freshly created
// project. It runs on the caller's transaction so the project and its
// first owner commit or roll back together.
func (r *MembershipRepository) CreateOwner(tx *gorm.DB, projectID, userID uuid.UUID) error {
	membership := model.Membership{
		UserID:    userID,
		ProjectID: projectID,
		Role:      model.RoleOwner,
	}
	return tx.Create(&membership).Error
}

// Add inserts a membership for a user who is not yet a member.
func (r *MembershipRepository) Add(ctx context.Context, projectID, userID uuid.UUID, role model.Role, invitedBy uuid.UUID) (*model.Membership, error) {
	membership := model.Membership{
		UserID:    userID,
		ProjectID: projectID,
		Role:      role,
		InvitedBy: &invitedBy,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Membership
		err := tx.Where("project_id = ? AND user_id = ?", projectID, userID).First(&existing).Error
		if err == nil {
			return ErrMemberAlreadyExists
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		return tx.Create(&membership).Error
	})
	if err != nil {
		return nil, err
	}
	return &membership, nil
}

// Remove deletes a membership. Removing an owner is refused when no
// other owner would remain. The project's membership rows are locked
// for the duration of the transaction so two concurrent removals of
// the two last owners cannot both pass the count check.
func (r *MembershipRepository) Remove(ctx context.Context, projectID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		members, err := r.lockMembers(tx, projectID)
		if err != nil {
			return err
		}

		target := findMember(members, userID)
		if target == nil {
			return ErrMemberNotFound
		}

		if target.Role == model.RoleOwner && countOwners(members) <= 1 {
			return ErrLastOwner
		}

		return tx.Delete(&model.Membership{}, "id = ?", target.ID).Error
	})
}

// ChangeRole updates a member's role in place. A change to the role
// the member already holds is an error, not a silent success.
// Demoting the last owner is refused for the same reason removal is.
func (r *MembershipRepository) ChangeRole(ctx context.Context, projectID, userID uuid.UUID, newRole model.Role) (*model.Membership, error) {
	var updated model.Membership

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		members, err := r.lockMembers(tx, projectID)
		if err != nil {
			return err
		}

		target := findMember(members, userID)
		if target == nil {
			return ErrMemberNotFound
		}

		if target.Role == newRole {
			return ErrSameRole
		}

		if target.Role == model.RoleOwner && newRole != model.RoleOwner && countOwners(members) <= 1 {
			return ErrLastOwner
		}

		if err := tx.Model(&model.Membership{}).Where("id = ?", target.ID).
			Update("role", newRole).Error; err != nil {
			return err
		}

		updated = *target
		updated.Role = newRole
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// List returns all memberships of a project with their users loaded.
func (r *MembershipRepository) List(ctx context.Context, projectID uuid.UUID) ([]model.Membership, error) {
	var members []model.Membership

	err := r.db.WithContext(ctx).
		Preload("User").
		Where("project_id = ?", projectID).
		Order("joined_at").
		Find(&members).Error

	return members, err
}

// Get returns the membership of a user in a project, or nil when the
// user is not a member. This is the read the authorization gate runs
// on every request.
func (r *MembershipRepository) Get(ctx context.Context, projectID, userID uuid.UUID) (*model.Membership, error) {
	var membership model.Membership

	err := r.db.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&membership).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &membership, nil
}

// lockMembers reads a project's membership rows under FOR UPDATE.
func (r *MembershipRepository) lockMembers(tx *gorm.DB, projectID uuid.UUID) ([]model.Membership, error) {
	var members []model.Membership
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("project_id = ?", projectID).
		Find(&members).Error
	return members, err
}

func findMember(members []model.Membership, userID uuid.UUID) *model.Membership {
	for i := range members {
		if members[i].UserID == userID {
			return &members[i]
		}
	}
	return nil
}

func countOwners(members []model.Membership) int {
	count := 0
	for _, m := range members {
		if m.Role == model.RoleOwner {
			count++
		}
	}
	return count
}

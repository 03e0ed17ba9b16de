package repository_test

import (
	"context"
	"testing"
	"time"

	"taskboard/internal/model"
	"taskboard/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func membershipRows(members ...model.Membership) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "user_id", "project_id", "role", "joined_at", "invited_by"})
	for _, m := range members {
		rows.AddRow(m.ID.String(), m.UserID.String(), m.ProjectID.String(), string(m.Role), m.JoinedAt, nil)
	}
	return rows
}

func member(projectID, userID uuid.UUID, role model.Role) model.Membership {
	return model.Membership{
		ID:        uuid.New(),
		UserID:    userID,
		ProjectID: projectID,
		Role:      role,
		JoinedAt:  time.Now(),
	}
}

func TestMembershipRepository_Add(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewMembershipRepository(gormDB)

	projectID := uuid.New()
	userID := uuid.New()
	invitedBy := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM "memberships" WHERE project_id = .* AND user_id = .*`).
		WillReturnError(gorm.ErrRecordNotFound)
	mock.ExpectQuery(`INSERT INTO "memberships"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
	mock.ExpectCommit()

	membership, err := repo.Add(context.Background(), projectID, userID, model.RoleEditor, invitedBy)

	assert.NoError(t, err)
	assert.NotNil(t, membership)
	assert.Equal(t, model.RoleEditor, membership.Role)
	assert.Equal(t, &invitedBy, membership.InvitedBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMembershipRepository_Add_AlreadyExists(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewMembershipRepository(gormDB)

	projectID := uuid.New()
	userID := uuid.New()
	existing := member(projectID, userID, model.RoleViewer)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM "memberships" WHERE project_id = .* AND user_id = .*`).
		WillReturnRows(membershipRows(existing))
	mock.ExpectRollback()

	// The requested role does not matter; the duplicate is rejected.
	_, err := repo.Add(context.Background(), projectID, userID, model.RoleOwner, uuid.New())

	assert.ErrorIs(t, err, repository.ErrMemberAlreadyExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMembershipRepository_Remove(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewMembershipRepository(gormDB)

	projectID := uuid.New()
	owner := member(projectID, uuid.New(), model.RoleOwner)
	editor := member(projectID, uuid.New(), model.RoleEditor)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM "memberships" WHERE project_id = .* FOR UPDATE`).
		WillReturnRows(membershipRows(owner, editor))
	mock.ExpectExec(`DELETE FROM "memberships"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Remove(context.Background(), projectID, editor.UserID)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMembershipRepository_Remove_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewMembershipRepository(gormDB)

	projectID := uuid.New()
	owner := member(projectID, uuid.New(), model.RoleOwner)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM "memberships" WHERE project_id = .* FOR UPDATE`).
		WillReturnRows(membershipRows(owner))
	mock.ExpectRollback()

	err := repo.Remove(context.Background(), projectID, uuid.New())

	assert.ErrorIs(t, err, repository.ErrMemberNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMembershipRepository_Remove_LastOwner(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewMembershipRepository(gormDB)

	projectID := uuid.New()
	owner := member(projectID, uuid.New(), model.RoleOwner)
	viewer := member(projectID, uuid.New(), model.RoleViewer)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM "memberships" WHERE project_id = .* FOR UPDATE`).
		WillReturnRows(membershipRows(owner, viewer))
	mock.ExpectRollback()

	err := repo.Remove(context.Background(), projectID, owner.UserID)

	assert.ErrorIs(t, err, repository.ErrLastOwner)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMembershipRepository_Remove_SecondToLastOwner(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewMembershipRepository(gormDB)

	projectID := uuid.New()
	ownerA := member(projectID, uuid.New(), model.RoleOwner)
	ownerB := member(projectID, uuid.New(), model.RoleOwner)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM "memberships" WHERE project_id = .* FOR UPDATE`).
		WillReturnRows(membershipRows(ownerA, ownerB))
	mock.ExpectExec(`DELETE FROM "memberships"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// With two owners, removing one is allowed.
	err := repo.Remove(context.Background(), projectID, ownerA.UserID)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMembershipRepository_ChangeRole(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewMembershipRepository(gormDB)

	projectID := uuid.New()
	owner := member(projectID, uuid.New(), model.RoleOwner)
	editor := member(projectID, uuid.New(), model.RoleEditor)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM "memberships" WHERE project_id = .* FOR UPDATE`).
		WillReturnRows(membershipRows(owner, editor))
	mock.ExpectExec(`UPDATE "memberships" SET "role"=.*`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	updated, err := repo.ChangeRole(context.Background(), projectID, editor.UserID, model.RoleOwner)

	assert.NoError(t, err)
	assert.Equal(t, model.RoleOwner, updated.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMembershipRepository_ChangeRole_SameRole(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewMembershipRepository(gormDB)

	projectID := uuid.New()
	editor := member(projectID, uuid.New(), model.RoleEditor)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM "memberships" WHERE project_id = .* FOR UPDATE`).
		WillReturnRows(membershipRows(editor))
	mock.ExpectRollback()

	_, err := repo.ChangeRole(context.Background(), projectID, editor.UserID, model.RoleEditor)

	assert.ErrorIs(t, err, repository.ErrSameRole)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMembershipRepository_ChangeRole_DemoteLastOwner(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewMembershipRepository(gormDB)

	projectID := uuid.New()
	owner := member(projectID, uuid.New(), model.RoleOwner)
	viewer := member(projectID, uuid.New(), model.RoleViewer)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM "memberships" WHERE project_id = .* FOR UPDATE`).
		WillReturnRows(membershipRows(owner, viewer))
	mock.ExpectRollback()

	_, err := repo.ChangeRole(context.Background(), projectID, owner.UserID, model.RoleEditor)

	assert.ErrorIs(t, err, repository.ErrLastOwner)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMembershipRepository_ChangeRole_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewMembershipRepository(gormDB)

	projectID := uuid.New()
	owner := member(projectID, uuid.New(), model.RoleOwner)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM "memberships" WHERE project_id = .* FOR UPDATE`).
		WillReturnRows(membershipRows(owner))
	mock.ExpectRollback()

	_, err := repo.ChangeRole(context.Background(), projectID, uuid.New(), model.RoleViewer)

	assert.ErrorIs(t, err, repository.ErrMemberNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMembershipRepository_Get_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewMembershipRepository(gormDB)

	mock.ExpectQuery(`SELECT .* FROM "memberships" WHERE project_id = .* AND user_id = .*`).
		WillReturnError(gorm.ErrRecordNotFound)

	membership, err := repo.Get(context.Background(), uuid.New(), uuid.New())

	assert.NoError(t, err)
	assert.Nil(t, membership)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMembershipRepository_Get_Found(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewMembershipRepository(gormDB)

	projectID := uuid.New()
	userID := uuid.New()
	existing := member(projectID, userID, model.RoleViewer)

	mock.ExpectQuery(`SELECT .* FROM "memberships" WHERE project_id = .* AND user_id = .*`).
		WillReturnRows(membershipRows(existing))

	membership, err := repo.Get(context.Background(), projectID, userID)

	assert.NoError(t, err)
	assert.NotNil(t, membership)
	assert.Equal(t, model.RoleViewer, membership.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package repository_test

import (
	"context"
	"testing"

	"taskboard/internal/model"
	"taskboard/internal/pagination"
	"taskboard/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func newProjectRepo(gormDB *gorm.DB) *repository.ProjectRepository {
	return repository.NewProjectRepository(gormDB, repository.NewMembershipRepository(gormDB), 20)
}

func TestProjectRepository_CreateWithOwner(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := newProjectRepo(gormDB)

	ownerID := uuid.New()
	projectID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "memberships" WHERE user_id = .*`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`INSERT INTO "projects"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(projectID.String()))
	mock.ExpectQuery(`INSERT INTO "memberships"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
	mock.ExpectCommit()

	project := &model.Project{Name: "Roadmap", OwnerID: ownerID}
	err := repo.CreateWithOwner(context.Background(), project)

	assert.NoError(t, err)
	assert.Equal(t, projectID, project.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepository_CreateWithOwner_LimitReached(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := newProjectRepo(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "memberships" WHERE user_id = .*`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(20))
	mock.ExpectRollback()

	// At the limit, no project and no membership row may be written.
	project := &model.Project{Name: "One too many", OwnerID: uuid.New()}
	err := repo.CreateWithOwner(context.Background(), project)

	assert.ErrorIs(t, err, repository.ErrProjectLimit)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepository_GetByID_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := newProjectRepo(gormDB)

	mock.ExpectQuery(`SELECT .* FROM "projects" WHERE id = .*`).
		WillReturnError(gorm.ErrRecordNotFound)

	_, err := repo.GetByID(context.Background(), uuid.New())

	assert.ErrorIs(t, err, repository.ErrProjectNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepository_ListForUser(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := newProjectRepo(gormDB)

	userID := uuid.New()

	mock.ExpectQuery(`SELECT count\(\*\) FROM "projects" JOIN memberships ON memberships.project_id = projects.id WHERE memberships.user_id = .*`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(`SELECT .* FROM "projects" JOIN memberships ON memberships.project_id = projects.id WHERE memberships.user_id = .*`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "owner_id"}).
			AddRow(uuid.New().String(), "Alpha", userID.String()).
			AddRow(uuid.New().String(), "Beta", userID.String()))

	projects, total, err := repo.ListForUser(context.Background(), userID, "", pagination.Params{Page: 1, Limit: 20, SortOrder: "asc"})

	assert.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, projects, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepository_Delete_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := newProjectRepo(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "projects"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.Delete(context.Background(), uuid.New())

	assert.ErrorIs(t, err, repository.ErrProjectNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

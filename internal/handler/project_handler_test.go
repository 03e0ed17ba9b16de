package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"taskboard/internal/authz"
	"taskboard/internal/handler"
	"taskboard/internal/middleware"
	"taskboard/internal/model"
	"taskboard/internal/pagination"
	"taskboard/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockProjectRepository struct {
	mock.Mock
}

func (m *MockProjectRepository) CreateWithOwner(ctx context.Context, project *model.Project) error {
	args := m.Called(ctx, project)
	return args.Error(0)
}

func (m *MockProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Project), args.Error(1)
}

func (m *MockProjectRepository) ListForUser(ctx context.Context, userID uuid.UUID, nameFilter string, p pagination.Params) ([]model.Project, int64, error) {
	args := m.Called(ctx, userID, nameFilter, p)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]model.Project), args.Get(1).(int64), args.Error(2)
}

func (m *MockProjectRepository) Update(ctx context.Context, project *model.Project) error {
	args := m.Called(ctx, project)
	return args.Error(0)
}

func (m *MockProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func setupProjectTest(callerID uuid.UUID) (*gin.Engine, *MockProjectRepository, *MockMembershipRepository) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.UserIDKey, callerID)
		c.Next()
	})

	projectRepo := new(MockProjectRepository)
	memberRepo := new(MockMembershipRepository)
	gate := authz.NewGate(memberRepo)
	projectHandler := handler.NewProjectHandler(projectRepo, gate)

	r.POST("/projects", projectHandler.Create)
	r.GET("/projects", projectHandler.GetAll)
	r.GET("/projects/:id", projectHandler.GetByID)
	r.PUT("/projects/:id", projectHandler.Update)
	r.DELETE("/projects/:id", projectHandler.Delete)

	return r, projectRepo, memberRepo
}

func TestProjectCreate_Success(t *testing.T) {
	callerID := uuid.New()
	router, projectRepo, _ := setupProjectTest(callerID)

	projectRepo.On("CreateWithOwner", mock.Anything, mock.MatchedBy(func(p *model.Project) bool {
		return p.Name == "Roadmap" && p.OwnerID == callerID
	})).Return(nil)

	resp := jsonRequest(router, http.MethodPost, "/projects",
		handler.CreateProjectRequest{Name: "Roadmap"})

	assert.Equal(t, http.StatusCreated, resp.Code)
	projectRepo.AssertExpectations(t)
}

func TestProjectCreate_LimitReached(t *testing.T) {
	callerID := uuid.New()
	router, projectRepo, _ := setupProjectTest(callerID)

	projectRepo.On("CreateWithOwner", mock.Anything, mock.AnythingOfType("*model.Project")).
		Return(repository.ErrProjectLimit)

	resp := jsonRequest(router, http.MethodPost, "/projects",
		handler.CreateProjectRequest{Name: "One too many"})

	assert.Equal(t, http.StatusForbidden, resp.Code)
	projectRepo.AssertExpectations(t)
}

func TestProjectCreate_EmptyName(t *testing.T) {
	callerID := uuid.New()
	router, projectRepo, _ := setupProjectTest(callerID)

	resp := jsonRequest(router, http.MethodPost, "/projects",
		handler.CreateProjectRequest{Name: ""})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	projectRepo.AssertNotCalled(t, "CreateWithOwner", mock.Anything, mock.Anything)
}

func TestProjectGetByID_ViewerAllowed(t *testing.T) {
	callerID := uuid.New()
	projectID := uuid.New()
	router, projectRepo, memberRepo := setupProjectTest(callerID)

	memberRepo.On("Get", mock.Anything, projectID, callerID).
		Return(membershipOf(projectID, callerID, model.RoleViewer), nil)
	projectRepo.On("GetByID", mock.Anything, projectID).
		Return(&model.Project{ID: projectID, Name: "Roadmap", OwnerID: callerID}, nil)

	resp := doRequest(router, http.MethodGet, "/projects/"+projectID.String())

	assert.Equal(t, http.StatusOK, resp.Code)
	projectRepo.AssertExpectations(t)
}

func TestProjectGetByID_NonMemberDenied(t *testing.T) {
	callerID := uuid.New()
	projectID := uuid.New()
	router, projectRepo, memberRepo := setupProjectTest(callerID)

	memberRepo.On("Get", mock.Anything, projectID, callerID).Return(nil, nil)

	resp := doRequest(router, http.MethodGet, "/projects/"+projectID.String())

	assert.Equal(t, http.StatusForbidden, resp.Code)
	projectRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestProjectUpdate_ViewerDenied(t *testing.T) {
	callerID := uuid.New()
	projectID := uuid.New()
	router, projectRepo, memberRepo := setupProjectTest(callerID)

	memberRepo.On("Get", mock.Anything, projectID, callerID).
		Return(membershipOf(projectID, callerID, model.RoleViewer), nil)

	resp := jsonRequest(router, http.MethodPut, "/projects/"+projectID.String(),
		handler.UpdateProjectRequest{Name: "Renamed"})

	assert.Equal(t, http.StatusForbidden, resp.Code)
	projectRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestProjectDelete_EditorDenied(t *testing.T) {
	callerID := uuid.New()
	projectID := uuid.New()
	router, projectRepo, memberRepo := setupProjectTest(callerID)

	memberRepo.On("Get", mock.Anything, projectID, callerID).
		Return(membershipOf(projectID, callerID, model.RoleEditor), nil)

	resp := doRequest(router, http.MethodDelete, "/projects/"+projectID.String())

	assert.Equal(t, http.StatusForbidden, resp.Code)
	projectRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestProjectDelete_OwnerAllowed(t *testing.T) {
	callerID := uuid.New()
	projectID := uuid.New()
	router, projectRepo, memberRepo := setupProjectTest(callerID)

	memberRepo.On("Get", mock.Anything, projectID, callerID).
		Return(membershipOf(projectID, callerID, model.RoleOwner), nil)
	projectRepo.On("Delete", mock.Anything, projectID).Return(nil)

	resp := doRequest(router, http.MethodDelete, "/projects/"+projectID.String())

	assert.Equal(t, http.StatusNoContent, resp.Code)
	projectRepo.AssertExpectations(t)
}

func TestProjectGetAll_ReturnsPage(t *testing.T) {
	callerID := uuid.New()
	router, projectRepo, _ := setupProjectTest(callerID)

	projectRepo.On("ListForUser", mock.Anything, callerID, "", mock.AnythingOfType("pagination.Params")).
		Return([]model.Project{
			{ID: uuid.New(), Name: "Alpha", OwnerID: callerID},
			{ID: uuid.New(), Name: "Beta", OwnerID: callerID},
		}, int64(2), nil)

	resp := doRequest(router, http.MethodGet, "/projects")

	assert.Equal(t, http.StatusOK, resp.Code)

	var page pagination.Page[handler.ProjectResponse]
	err := json.Unmarshal(resp.Body.Bytes(), &page)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Len(t, page.Items, 2)

	projectRepo.AssertExpectations(t)
}

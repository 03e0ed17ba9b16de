package handler

import (
	"errors"
	"net/http"
	"time"

	"taskboard/internal/authz"
	"taskboard/internal/model"
	"taskboard/internal/pagination"
	"taskboard/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ProjectHandler struct {
	projectRepo repository.ProjectRepositoryInterface
	gate        *authz.Gate
}

func NewProjectHandler(projectRepo repository.ProjectRepositoryInterface, gate *authz.Gate) *ProjectHandler {
	return &ProjectHandler{
		projectRepo: projectRepo,
		gate:        gate,
	}
}

type CreateProjectRequest struct {
	Name string `json:"name" binding:"required,min=1,max=128"`
}

type UpdateProjectRequest struct {
	Name string `json:"name" binding:"required,min=1,max=128"`
}

type ProjectResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	OwnerID   string `json:"owner_id"`
	CreatedAt string `json:"created_at"`
}

func toProjectResponse(p *model.Project) ProjectResponse {
	return ProjectResponse{
		ID:        p.ID.String(),
		Name:      p.Name,
		OwnerID:   p.OwnerID.String(),
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
	}
}

// Create creates a project; the creator becomes its first owner in
// the same transaction.
func (h *ProjectHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	project := &model.Project{
		Name:    req.Name,
		OwnerID: userID,
	}

	if err := h.projectRepo.CreateWithOwner(c.Request.Context(), project); err != nil {
		if errors.Is(err, repository.ErrProjectLimit) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Maximum number of projects reached"})
			return
		}
		zap.L().Error("project create failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create project"})
		return
	}

	c.JSON(http.StatusCreated, toProjectResponse(project))
}

// GetAll lists the caller's projects with name filtering and paging.
func (h *ProjectHandler) GetAll(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	params := pagination.FromQuery(c)
	projects, total, err := h.projectRepo.ListForUser(c.Request.Context(), userID, c.Query("name"), params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve projects"})
		return
	}

	items := make([]ProjectResponse, len(projects))
	for i := range projects {
		items[i] = toProjectResponse(&projects[i])
	}

	c.JSON(http.StatusOK, pagination.Page[ProjectResponse]{
		Items: items,
		Total: total,
		Page:  params.Page,
		Limit: params.Limit,
	})
}

func (h *ProjectHandler) GetByID(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	projectID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	_, err := h.gate.Authorize(c.Request.Context(), userID, projectID,
		model.RoleOwner, model.RoleEditor, model.RoleViewer)
	if err != nil {
		if respondDenied(c, err) {
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Authorization check failed"})
		return
	}

	project, err := h.projectRepo.GetByID(c.Request.Context(), projectID)
	if err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
		return
	}

	c.JSON(http.StatusOK, toProjectResponse(project))
}

func (h *ProjectHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	projectID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	_, err := h.gate.Authorize(c.Request.Context(), userID, projectID,
		model.RoleOwner, model.RoleEditor)
	if err != nil {
		if respondDenied(c, err) {
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Authorization check failed"})
		return
	}

	var req UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	project, err := h.projectRepo.GetByID(c.Request.Context(), projectID)
	if err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
		return
	}

	project.Name = req.Name
	if err := h.projectRepo.Update(c.Request.Context(), project); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update project"})
		return
	}

	c.JSON(http.StatusOK, toProjectResponse(project))
}

// Delete removes a project and everything under it. Owner only.
func (h *ProjectHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	projectID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	_, err := h.gate.Authorize(c.Request.Context(), userID, projectID, model.RoleOwner)
	if err != nil {
		if respondDenied(c, err) {
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Authorization check failed"})
		return
	}

	if err := h.projectRepo.Delete(c.Request.Context(), projectID); err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete project"})
		return
	}

	zap.L().Info("project deleted",
		zap.String("project_id", projectID.String()),
		zap.String("user_id", userID.String()),
	)

	c.Status(http.StatusNoContent)
}

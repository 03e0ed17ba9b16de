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
	"github.com/google/uuid"
)

type TaskHandler struct {
	taskRepo   repository.TaskRepositoryInterface
	boardRepo  repository.BoardRepositoryInterface
	memberRepo repository.MembershipRepositoryInterface
	gate       *authz.Gate
}

func NewTaskHandler(
	taskRepo repository.TaskRepositoryInterface,
	boardRepo repository.BoardRepositoryInterface,
	memberRepo repository.MembershipRepositoryInterface,
	gate *authz.Gate,
) *TaskHandler {
	return &TaskHandler{
		taskRepo:   taskRepo,
		boardRepo:  boardRepo,
		memberRepo: memberRepo,
		gate:       gate,
	}
}

type CreateTaskRequest struct {
	Name        string              `json:"name" binding:"required,min=1,max=256"`
	Description string              `json:"description" binding:"omitempty,max=512"`
	Status      model.TaskStatus    `json:"status" binding:"omitempty,oneof=active completed archived"`
	Priority    model.TaskPriority  `json:"priority" binding:"omitempty,oneof=low medium high"`
	AssigneeID  *uuid.UUID          `json:"assignee_id"`
	DueDate     *time.Time          `json:"due_date"`
}

type UpdateTaskRequest struct {
	Name        *string             `json:"name" binding:"omitempty,min=1,max=256"`
	Description *string             `json:"description" binding:"omitempty,max=512"`
	Status      *model.TaskStatus   `json:"status" binding:"omitempty,oneof=active completed archived"`
	Priority    *model.TaskPriority `json:"priority" binding:"omitempty,oneof=low medium high"`
	DueDate     *time.Time          `json:"due_date"`
	Position    *int                `json:"position" binding:"omitempty,min=0"`
	Archived    *bool               `json:"archived"`
}

type AssignTaskRequest struct {
	AssigneeID uuid.UUID `json:"assignee_id" binding:"required"`
}

type TaskResponse struct {
	ID          string     `json:"id"`
	BoardID     string     `json:"board_id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	AssigneeID  *string    `json:"assignee_id,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Position    int        `json:"position"`
	Archived    bool       `json:"archived"`
	CreatedAt   string     `json:"created_at"`
	UpdatedAt   string     `json:"updated_at"`
}

func toTaskResponse(t *model.Task) TaskResponse {
	resp := TaskResponse{
		ID:          t.ID.String(),
		BoardID:     t.BoardID.String(),
		Name:        t.Name,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		DueDate:     t.DueDate,
		Position:    t.Position,
		Archived:    t.Archived,
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   t.UpdatedAt.Format(time.RFC3339),
	}
	if t.AssigneeID != nil {
		assignee := t.AssigneeID.String()
		resp.AssigneeID = &assignee
	}
	return resp
}

// validateAssignee checks the candidate holds a membership in the
// task's project. Runs on every create and every assignment change.
func (h *TaskHandler) validateAssignee(c *gin.Context, assigneeID, projectID uuid.UUID) bool {
	membership, err := h.memberRepo.Get(c.Request.Context(), projectID, assigneeID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to validate assignee"})
		return false
	}
	if membership == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Assignee must be a project member"})
		return false
	}
	return true
}

// scopedBoard authorizes the caller for the project and resolves the
// board within it. Both the project and board IDs come from the path.
func (h *TaskHandler) scopedBoard(c *gin.Context, roles ...model.Role) (userID, projectID uuid.UUID, board *model.Board, ok bool) {
	userID, ok = currentUserID(c)
	if !ok {
		return
	}

	projectID, ok = pathUUID(c, "id")
	if !ok {
		return
	}

	boardID, ok := pathUUID(c, "board_id")
	if !ok {
		return userID, projectID, nil, false
	}

	_, err := h.gate.Authorize(c.Request.Context(), userID, projectID, roles...)
	if err != nil {
		if !respondDenied(c, err) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Authorization check failed"})
		}
		return userID, projectID, nil, false
	}

	board, err = h.boardRepo.GetByID(c.Request.Context(), projectID, boardID)
	if err != nil {
		if errors.Is(err, repository.ErrBoardNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Board not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve board"})
		}
		return userID, projectID, nil, false
	}

	return userID, projectID, board, true
}

func (h *TaskHandler) Create(c *gin.Context) {
	_, projectID, board, ok := h.scopedBoard(c, model.RoleOwner, model.RoleEditor)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if req.AssigneeID != nil && !h.validateAssignee(c, *req.AssigneeID, projectID) {
		return
	}

	task := &model.Task{
		BoardID:     board.ID,
		Name:        req.Name,
		Description: req.Description,
		Status:      model.TaskStatusActive,
		Priority:    model.TaskPriorityMedium,
		AssigneeID:  req.AssigneeID,
		DueDate:     req.DueDate,
	}
	if req.Status != "" {
		task.Status = req.Status
	}
	if req.Priority != "" {
		task.Priority = req.Priority
	}

	if err := h.taskRepo.Create(c.Request.Context(), task); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create task"})
		return
	}

	c.JSON(http.StatusCreated, toTaskResponse(task))
}

func (h *TaskHandler) GetAll(c *gin.Context) {
	_, _, board, ok := h.scopedBoard(c, model.RoleOwner, model.RoleEditor, model.RoleViewer)
	if !ok {
		return
	}

	filters := repository.TaskFilters{
		IncludeArchived: c.Query("include_archived") == "true",
	}
	if status := model.TaskStatus(c.Query("status")); status.Valid() {
		filters.Status = status
	}
	if priority := model.TaskPriority(c.Query("priority")); priority.Valid() {
		filters.Priority = priority
	}
	if assignee, err := uuid.Parse(c.Query("assignee_id")); err == nil {
		filters.AssigneeID = &assignee
	}

	params := pagination.FromQuery(c)
	tasks, total, err := h.taskRepo.List(c.Request.Context(), board.ID, filters, params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tasks"})
		return
	}

	items := make([]TaskResponse, len(tasks))
	for i := range tasks {
		items[i] = toTaskResponse(&tasks[i])
	}

	c.JSON(http.StatusOK, pagination.Page[TaskResponse]{
		Items: items,
		Total: total,
		Page:  params.Page,
		Limit: params.Limit,
	})
}

func (h *TaskHandler) GetByID(c *gin.Context) {
	_, _, board, ok := h.scopedBoard(c, model.RoleOwner, model.RoleEditor, model.RoleViewer)
	if !ok {
		return
	}

	taskID, ok := pathUUID(c, "task_id")
	if !ok {
		return
	}

	task, err := h.taskRepo.GetByID(c.Request.Context(), board.ID, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		return
	}

	c.JSON(http.StatusOK, toTaskResponse(task))
}

func (h *TaskHandler) Update(c *gin.Context) {
	_, _, board, ok := h.scopedBoard(c, model.RoleOwner, model.RoleEditor)
	if !ok {
		return
	}

	taskID, ok := pathUUID(c, "task_id")
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	task, err := h.taskRepo.GetByID(c.Request.Context(), board.ID, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		return
	}

	if req.Name != nil {
		task.Name = *req.Name
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Status != nil {
		task.Status = *req.Status
	}
	if req.Priority != nil {
		task.Priority = *req.Priority
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}
	if req.Position != nil {
		task.Position = *req.Position
	}
	if req.Archived != nil {
		task.Archived = *req.Archived
	}

	if err := h.taskRepo.Update(c.Request.Context(), task); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update task"})
		return
	}

	c.JSON(http.StatusOK, toTaskResponse(task))
}

// Assign sets the task's assignee after checking project membership.
func (h *TaskHandler) Assign(c *gin.Context) {
	_, projectID, board, ok := h.scopedBoard(c, model.RoleOwner, model.RoleEditor)
	if !ok {
		return
	}

	taskID, ok := pathUUID(c, "task_id")
	if !ok {
		return
	}

	var req AssignTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if !h.validateAssignee(c, req.AssigneeID, projectID) {
		return
	}

	task, err := h.taskRepo.GetByID(c.Request.Context(), board.ID, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		return
	}

	assignee := req.AssigneeID
	task.AssigneeID = &assignee
	if err := h.taskRepo.Update(c.Request.Context(), task); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to assign task"})
		return
	}

	c.JSON(http.StatusOK, toTaskResponse(task))
}

// Unassign clears the assignee. Always permitted, no membership check.
func (h *TaskHandler) Unassign(c *gin.Context) {
	_, _, board, ok := h.scopedBoard(c, model.RoleOwner, model.RoleEditor)
	if !ok {
		return
	}

	taskID, ok := pathUUID(c, "task_id")
	if !ok {
		return
	}

	task, err := h.taskRepo.GetByID(c.Request.Context(), board.ID, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		return
	}

	task.AssigneeID = nil
	if err := h.taskRepo.Update(c.Request.Context(), task); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to unassign task"})
		return
	}

	c.JSON(http.StatusOK, toTaskResponse(task))
}

func (h *TaskHandler) Delete(c *gin.Context) {
	_, _, board, ok := h.scopedBoard(c, model.RoleOwner, model.RoleEditor)
	if !ok {
		return
	}

	taskID, ok := pathUUID(c, "task_id")
	if !ok {
		return
	}

	if err := h.taskRepo.Delete(c.Request.Context(), board.ID, taskID); err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete task"})
		return
	}

	c.Status(http.StatusNoContent)
}

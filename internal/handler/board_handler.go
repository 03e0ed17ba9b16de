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
)

type BoardHandler struct {
	boardRepo repository.BoardRepositoryInterface
	gate      *authz.Gate
}

func NewBoardHandler(boardRepo repository.BoardRepositoryInterface, gate *authz.Gate) *BoardHandler {
	return &BoardHandler{
		boardRepo: boardRepo,
		gate:      gate,
	}
}

type CreateBoardRequest struct {
	Name string `json:"name" binding:"required,min=1,max=128"`
}

type UpdateBoardRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=1,max=128"`
	Position *int    `json:"position" binding:"omitempty,min=0"`
	Archived *bool   `json:"archived"`
}

type BoardResponse struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
	Position  int    `json:"position"`
	Archived  bool   `json:"archived"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toBoardResponse(b *model.Board) BoardResponse {
	return BoardResponse{
		ID:        b.ID.String(),
		ProjectID: b.ProjectID.String(),
		Name:      b.Name,
		Position:  b.Position,
		Archived:  b.Archived,
		CreatedAt: b.CreatedAt.Format(time.RFC3339),
		UpdatedAt: b.UpdatedAt.Format(time.RFC3339),
	}
}

// Create adds a board at the end of the project's ordering.
func (h *BoardHandler) Create(c *gin.Context) {
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

	var req CreateBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	board := &model.Board{
		ProjectID: projectID,
		Name:      req.Name,
	}

	if err := h.boardRepo.Create(c.Request.Context(), board); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create board"})
		return
	}

	c.JSON(http.StatusCreated, toBoardResponse(board))
}

func (h *BoardHandler) GetAll(c *gin.Context) {
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

	filters := repository.BoardFilters{
		IncludeArchived: c.Query("include_archived") == "true",
		Name:            c.Query("name"),
	}

	params := pagination.FromQuery(c)
	boards, total, err := h.boardRepo.List(c.Request.Context(), projectID, filters, params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve boards"})
		return
	}

	items := make([]BoardResponse, len(boards))
	for i := range boards {
		items[i] = toBoardResponse(&boards[i])
	}

	c.JSON(http.StatusOK, pagination.Page[BoardResponse]{
		Items: items,
		Total: total,
		Page:  params.Page,
		Limit: params.Limit,
	})
}

func (h *BoardHandler) GetByID(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	projectID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	boardID, ok := pathUUID(c, "board_id")
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

	board, err := h.boardRepo.GetByID(c.Request.Context(), projectID, boardID)
	if err != nil {
		if errors.Is(err, repository.ErrBoardNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Board not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve board"})
		return
	}

	c.JSON(http.StatusOK, toBoardResponse(board))
}

func (h *BoardHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	projectID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	boardID, ok := pathUUID(c, "board_id")
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

	var req UpdateBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	board, err := h.boardRepo.GetByID(c.Request.Context(), projectID, boardID)
	if err != nil {
		if errors.Is(err, repository.ErrBoardNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Board not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve board"})
		return
	}

	if req.Name != nil {
		board.Name = *req.Name
	}
	if req.Position != nil {
		board.Position = *req.Position
	}
	if req.Archived != nil {
		board.Archived = *req.Archived
	}

	if err := h.boardRepo.Update(c.Request.Context(), board); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update board"})
		return
	}

	c.JSON(http.StatusOK, toBoardResponse(board))
}

func (h *BoardHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	projectID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	boardID, ok := pathUUID(c, "board_id")
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

	if err := h.boardRepo.Delete(c.Request.Context(), projectID, boardID); err != nil {
		if errors.Is(err, repository.ErrBoardNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Board not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete board"})
		return
	}

	c.Status(http.StatusNoContent)
}

package handler

import (
	"errors"
	"net/http"
	"time"

	"taskboard/internal/authz"
	"taskboard/internal/model"
	"taskboard/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MemberHandler exposes the membership lifecycle. All mutations are
// owner-only; listing is open to every member.
type MemberHandler struct {
	memberRepo repository.MembershipRepositoryInterface
	userRepo   repository.UserRepositoryInterface
	gate       *authz.Gate
}

func NewMemberHandler(
	memberRepo repository.MembershipRepositoryInterface,
	userRepo repository.UserRepositoryInterface,
	gate *authz.Gate,
) *MemberHandler {
	return &MemberHandler{
		memberRepo: memberRepo,
		userRepo:   userRepo,
		gate:       gate,
	}
}

type AddMemberRequest struct {
	Role model.Role `json:"role" binding:"required,oneof=owner editor viewer"`
}

type ChangeRoleRequest struct {
	Role model.Role `json:"role" binding:"required,oneof=owner editor viewer"`
}

type MemberResponse struct {
	UserID    string  `json:"user_id"`
	Email     string  `json:"email,omitempty"`
	Name      string  `json:"name,omitempty"`
	Role      string  `json:"role"`
	JoinedAt  string  `json:"joined_at"`
	InvitedBy *string `json:"invited_by,omitempty"`
}

func toMemberResponse(m *model.Membership) MemberResponse {
	resp := MemberResponse{
		UserID:   m.UserID.String(),
		Email:    m.User.Email,
		Name:     m.User.Name,
		Role:     string(m.Role),
		JoinedAt: m.JoinedAt.Format(time.RFC3339),
	}
	if m.InvitedBy != nil {
		inviter := m.InvitedBy.String()
		resp.InvitedBy = &inviter
	}
	return resp
}

func (h *MemberHandler) List(c *gin.Context) {
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

	members, err := h.memberRepo.List(c.Request.Context(), projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve members"})
		return
	}

	response := make([]MemberResponse, len(members))
	for i := range members {
		response[i] = toMemberResponse(&members[i])
	}

	c.JSON(http.StatusOK, response)
}

func (h *MemberHandler) Add(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	projectID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	targetUserID, ok := pathUUID(c, "user_id")
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

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	targetUser, err := h.userRepo.GetByID(c.Request.Context(), targetUserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to find user"})
		return
	}
	if targetUser == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	membership, err := h.memberRepo.Add(c.Request.Context(), projectID, targetUserID, req.Role, userID)
	if err != nil {
		if errors.Is(err, repository.ErrMemberAlreadyExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "User is already a member of this project"})
			return
		}
		zap.L().Error("add member failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add member"})
		return
	}

	membership.User = *targetUser
	c.JSON(http.StatusCreated, toMemberResponse(membership))
}

func (h *MemberHandler) Remove(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	projectID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	targetUserID, ok := pathUUID(c, "user_id")
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

	if err := h.memberRepo.Remove(c.Request.Context(), projectID, targetUserID); err != nil {
		switch {
		case errors.Is(err, repository.ErrMemberNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Member not found in project"})
		case errors.Is(err, repository.ErrLastOwner):
			c.JSON(http.StatusConflict, gin.H{"error": "Cannot remove the last owner of the project"})
		default:
			zap.L().Error("remove member failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove member"})
		}
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *MemberHandler) ChangeRole(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	projectID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	targetUserID, ok := pathUUID(c, "user_id")
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

	var req ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	membership, err := h.memberRepo.ChangeRole(c.Request.Context(), projectID, targetUserID, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrMemberNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Member not found in project"})
		case errors.Is(err, repository.ErrSameRole):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Member already has this role"})
		case errors.Is(err, repository.ErrLastOwner):
			c.JSON(http.StatusConflict, gin.H{"error": "Cannot demote the last owner of the project"})
		default:
			zap.L().Error("change role failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to change role"})
		}
		return
	}

	c.JSON(http.StatusOK, toMemberResponse(membership))
}

package handler

import (
	"errors"
	"net/http"
	"strings"

	"kanbanflow/internal/model"
	"kanbanflow/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const MaxMembersPerBoard = 30

type BoardShareHandler struct {
	boardRepo BoardStore
	userRepo  UserStore
	shareRepo ShareStore
	scope     scope
}

func NewBoardShareHandler(boardRepo BoardStore, userRepo UserStore, shareRepo ShareStore) *BoardShareHandler {
	return &BoardShareHandler{
		boardRepo: boardRepo,
		userRepo:  userRepo,
		shareRepo: shareRepo,
		scope:     scope{boards: boardRepo, shares: shareRepo},
	}
}

type ShareBoardRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role" binding:"required,oneof=viewer editor"`
}

type BoardShareResponse struct {
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Role    string `json:"role"`
	IsOwner bool   `json:"is_owner"`
}

// ShareBoard godoc
// @Summary      Grant a user access to a board
// @Tags         sharing
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id path string true "Board ID"
// @Param        request body ShareBoardRequest true "Grant"
// @Success      200 {object} BoardShareResponse
// @Failure      403 {object} map[string]string
// @Router       /boards/{id}/share [post]
func (h *BoardShareHandler) ShareBoard(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	boardID, ok := pathID(c, "id", "board")
	if !ok {
		return
	}

	board, err := h.boardRepo.GetByID(c.Request.Context(), boardID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve board"})
		return
	}
	if board == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Board not found"})
		return
	}
	if board.OwnerID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the board owner can share the board"})
		return
	}

	var req ShareBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	target, err := h.userRepo.FindByEmail(c.Request.Context(), strings.ToLower(req.Email))
	if errors.Is(err, repository.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to find user"})
		return
	}
	if target.ID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot share board with yourself"})
		return
	}

	shares, err := h.shareRepo.GetBoardShares(c.Request.Context(), boardID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve shares"})
		return
	}
	// The owner counts as a member; changing an existing grant's role is always allowed.
	if !hasMember(shares, target.ID) && len(shares)+1 >= MaxMembersPerBoard {
		c.JSON(http.StatusForbidden, gin.H{"error": "Maximum number of members reached (30)"})
		return
	}

	if err := h.shareRepo.ShareBoard(c.Request.Context(), boardID, target.ID, req.Role); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to share board"})
		return
	}

	c.JSON(http.StatusOK, BoardShareResponse{
		UserID: target.ID.String(),
		Email:  target.Email,
		Name:   target.Name,
		Role:   req.Role,
	})
}

// RemoveShare godoc
// @Summary      Revoke a user's access to a board
// @Tags         sharing
// @Security     BearerAuth
// @Param        id path string true "Board ID"
// @Param        user_id path string true "User ID"
// @Success      200 {object} map[string]string
// @Router       /boards/{id}/share/{user_id} [delete]
func (h *BoardShareHandler) RemoveShare(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	boardID, ok := pathID(c, "id", "board")
	if !ok {
		return
	}
	targetID, ok := pathID(c, "user_id", "user")
	if !ok {
		return
	}

	board, err := h.boardRepo.GetByID(c.Request.Context(), boardID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve board"})
		return
	}
	if board == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Board not found"})
		return
	}
	if board.OwnerID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the board owner can remove access"})
		return
	}

	if err := h.shareRepo.RemoveShare(c.Request.Context(), boardID, targetID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove share"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Board access removed successfully"})
}

// GetBoardShares godoc
// @Summary      List who can access a board
// @Tags         sharing
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "Board ID"
// @Success      200 {array} BoardShareResponse
// @Router       /boards/{id}/share [get]
func (h *BoardShareHandler) GetBoardShares(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	boardID, ok := pathID(c, "id", "board")
	if !ok {
		return
	}

	board, ok := h.scope.board(c, boardID, userID, model.RoleViewer, "You don't have access to this board")
	if !ok {
		return
	}

	shares, err := h.shareRepo.GetBoardShares(c.Request.Context(), boardID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve board shares"})
		return
	}

	response := make([]BoardShareResponse, 0, len(shares)+1)
	owner, err := h.userRepo.GetByID(c.Request.Context(), board.OwnerID)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve board owner"})
		return
	}
	if owner != nil {
		response = append(response, BoardShareResponse{
			UserID:  owner.ID.String(),
			Email:   owner.Email,
			Name:    owner.Name,
			Role:    "owner",
			IsOwner: true,
		})
	}
	for _, share := range shares {
		response = append(response, BoardShareResponse{
			UserID: share.UserID.String(),
			Email:  share.User.Email,
			Name:   share.User.Name,
			Role:   share.Role,
		})
	}

	c.JSON(http.StatusOK, response)
}

// GetSharedBoards godoc
// @Summary      List boards shared with the caller
// @Tags         sharing
// @Security     BearerAuth
// @Produce      json
// @Success      200 {array} BoardResponse
// @Router       /shared-boards [get]
func (h *BoardShareHandler) GetSharedBoards(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	boards, err := h.shareRepo.GetSharedBoards(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve shared boards"})
		return
	}

	response := make([]BoardResponse, len(boards))
	for i := range boards {
		response[i] = toBoardResponse(&boards[i])
	}
	c.JSON(http.StatusOK, response)
}

func hasMember(shares []model.BoardShare, userID uuid.UUID) bool {
	for _, s := range shares {
		if s.UserID == userID {
			return true
		}
	}
	return false
}

package handler

import (
	"errors"
	"net/http"

	"kanbanflow/internal/model"
	"kanbanflow/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const MaxBoardsPerUser = 5

type BoardHandler struct {
	boardRepo BoardStore
	shareRepo ShareStore
	scope     scope
}

func NewBoardHandler(boardRepo BoardStore, shareRepo ShareStore) *BoardHandler {
	return &BoardHandler{
		boardRepo: boardRepo,
		shareRepo: shareRepo,
		scope:     scope{boards: boardRepo, shares: shareRepo},
	}
}

type CreateBoardRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

type UpdateBoardRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type BoardResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	OwnerID     string `json:"owner_id"`
	CreatedAt   string `json:"created_at"`
}

func toBoardResponse(board *model.Board) BoardResponse {
	return BoardResponse{
		ID:          board.ID.String(),
		Title:       board.Title,
		Description: board.Description,
		OwnerID:     board.OwnerID.String(),
		CreatedAt:   board.CreatedAt.Format(http.TimeFormat),
	}
}

// Create godoc
// @Summary      Create a board
// @Tags         boards
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request body CreateBoardRequest true "Board"
// @Success      201 {object} BoardResponse
// @Failure      403 {object} map[string]string
// @Router       /boards [post]
func (h *BoardHandler) Create(c *gin.Context) {
	ownerID, ok := currentUser(c)
	if !ok {
		return
	}

	// Check if user already has 5 boards
	count, err := h.boardRepo.CountOwned(c.Request.Context(), ownerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check board count"})
		return
	}
	if count >= MaxBoardsPerUser {
		c.JSON(http.StatusForbidden, gin.H{"error": "Maximum number of boards reached (5)"})
		return
	}

	var req CreateBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	board := &model.Board{
		Title:       req.Title,
		Description: req.Description,
		OwnerID:     ownerID,
	}
	if err := h.boardRepo.Create(c.Request.Context(), board); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create board"})
		return
	}

	c.JSON(http.StatusCreated, toBoardResponse(board))
}

// GetAll godoc
// @Summary      List the boards the caller owns
// @Tags         boards
// @Security     BearerAuth
// @Produce      json
// @Success      200 {array} BoardResponse
// @Router       /boards [get]
func (h *BoardHandler) GetAll(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	boards, err := h.boardRepo.GetOwned(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve boards"})
		return
	}

	response := make([]BoardResponse, len(boards))
	for i := range boards {
		response[i] = toBoardResponse(&boards[i])
	}
	c.JSON(http.StatusOK, response)
}

// GetByID godoc
// @Summary      Get a board
// @Tags         boards
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "Board ID"
// @Success      200 {object} BoardResponse
// @Failure      403 {object} map[string]string
// @Failure      404 {object} map[string]string
// @Router       /boards/{id} [get]
func (h *BoardHandler) GetByID(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	boardID, ok := pathID(c, "id", "board")
	if !ok {
		return
	}

	board, ok := h.scope.board(c, boardID, userID, model.RoleViewer, "You don't have permission to access this board")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toBoardResponse(board))
}

// Update godoc
// @Summary      Rename a board
// @Tags         boards
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id path string true "Board ID"
// @Param        request body UpdateBoardRequest true "Fields to change"
// @Success      200 {object} BoardResponse
// @Router       /boards/{id} [put]
func (h *BoardHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	boardID, ok := pathID(c, "id", "board")
	if !ok {
		return
	}

	board, ok := h.ownedBoard(c, boardID, userID, "You don't have permission to update this board")
	if !ok {
		return
	}

	var req UpdateBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if req.Title != "" {
		board.Title = req.Title
	}
	board.Description = req.Description

	if err := h.boardRepo.Update(c.Request.Context(), board); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update board"})
		return
	}
	c.JSON(http.StatusOK, toBoardResponse(board))
}

// Delete godoc
// @Summary      Delete a board with its columns and tasks
// @Tags         boards
// @Security     BearerAuth
// @Param        id path string true "Board ID"
// @Success      200 {object} map[string]string
// @Router       /boards/{id} [delete]
func (h *BoardHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	boardID, ok := pathID(c, "id", "board")
	if !ok {
		return
	}

	if _, ok := h.ownedBoard(c, boardID, userID, "Only the board owner can delete the board"); !ok {
		return
	}

	if err := h.boardRepo.Delete(c.Request.Context(), boardID); err != nil {
		if errors.Is(err, repository.ErrBoardNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Board not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete board"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Board deleted successfully"})
}

func (h *BoardHandler) ownedBoard(c *gin.Context, boardID, userID uuid.UUID, denied string) (*model.Board, bool) {
	board, err := h.boardRepo.GetByID(c.Request.Context(), boardID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve board"})
		return nil, false
	}
	if board == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Board not found"})
		return nil, false
	}
	if board.OwnerID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": denied})
		return nil, false
	}
	return board, true
}

package handler

import (
	"errors"
	"net/http"

	"kanbanflow/internal/flow"
	"kanbanflow/internal/model"
	"kanbanflow/internal/realtime"
	"kanbanflow/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ColumnHandler struct {
	columnRepo ColumnStore
	events     Publisher
	scope      scope
}

func NewColumnHandler(columnRepo ColumnStore, boardRepo BoardStore, shareRepo ShareStore, events Publisher) *ColumnHandler {
	if events == nil {
		events = discardPublisher{}
	}
	return &ColumnHandler{
		columnRepo: columnRepo,
		events:     events,
		scope:      scope{boards: boardRepo, shares: shareRepo, columns: columnRepo},
	}
}

type CreateColumnRequest struct {
	Title      string `json:"title" binding:"required"`
	BoardID    string `json:"board_id" binding:"required,uuid"`
	Color      string `json:"color"`
	FlowStatus string `json:"flow_status" binding:"omitempty,oneof=normal in_progress done"`
}

type UpdateColumnRequest struct {
	Title      string  `json:"title"`
	Color      *string `json:"color"`
	FlowStatus string  `json:"flow_status" binding:"omitempty,oneof=normal in_progress done"`
}

type ColumnResponse struct {
	ID         string `json:"id"`
	BoardID    string `json:"board_id"`
	Title      string `json:"title"`
	Color      string `json:"color,omitempty"`
	FlowStatus string `json:"flow_status"`
	Position   int    `json:"position"`
	Version    int64  `json:"version"`
}

type PlacementRequest struct {
	ID       string `json:"id" binding:"required,uuid"`
	Position int    `json:"position" binding:"min=1"`
}

type ReorderColumnsRequest struct {
	Columns []PlacementRequest `json:"columns" binding:"required,dive"`
}

func toColumnResponse(column *model.Column) ColumnResponse {
	status, err := flow.ParseStatus(column.FlowStatus)
	if err != nil {
		status = flow.StatusNormal
	}
	return ColumnResponse{
		ID:         column.ID.String(),
		BoardID:    column.BoardID.String(),
		Title:      column.Title,
		Color:      column.Color,
		FlowStatus: string(status),
		Position:   column.Position,
		Version:    column.Version,
	}
}

// Create godoc
// @Summary      Add a column to a board
// @Tags         columns
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request body CreateColumnRequest true "Column"
// @Success      201 {object} ColumnResponse
// @Router       /columns [post]
func (h *ColumnHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req CreateColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	boardID := uuid.MustParse(req.BoardID)

	if _, ok := h.scope.board(c, boardID, userID, model.RoleEditor, "You don't have permission to add columns to this board"); !ok {
		return
	}

	maxPosition, err := h.columnRepo.GetMaxPosition(c.Request.Context(), boardID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to determine column position"})
		return
	}

	column := &model.Column{
		BoardID:    boardID,
		Title:      req.Title,
		Color:      req.Color,
		FlowStatus: string(flow.StatusNormal),
		Position:   maxPosition + 1,
		Version:    1,
	}
	if req.FlowStatus != "" {
		column.FlowStatus = req.FlowStatus
	}

	if err := h.columnRepo.Create(c.Request.Context(), column); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create column"})
		return
	}

	c.JSON(http.StatusCreated, toColumnResponse(column))
}

// GetAll godoc
// @Summary      List the columns of a board in order
// @Tags         columns
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "Board ID"
// @Success      200 {array} ColumnResponse
// @Router       /boards/{id}/columns [get]
func (h *ColumnHandler) GetAll(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	boardID, ok := pathID(c, "id", "board")
	if !ok {
		return
	}

	if _, ok := h.scope.board(c, boardID, userID, model.RoleViewer, "You don't have permission to view this board"); !ok {
		return
	}

	columns, err := h.columnRepo.GetByBoardID(c.Request.Context(), boardID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve columns"})
		return
	}

	response := make([]ColumnResponse, len(columns))
	for i := range columns {
		response[i] = toColumnResponse(&columns[i])
	}
	c.JSON(http.StatusOK, response)
}

// GetByID godoc
// @Summary      Get a column
// @Tags         columns
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "Column ID"
// @Success      200 {object} ColumnResponse
// @Router       /columns/{id} [get]
func (h *ColumnHandler) GetByID(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	columnID, ok := pathID(c, "id", "column")
	if !ok {
		return
	}

	column, ok := h.scope.column(c, columnID, userID, model.RoleViewer, "You don't have permission to view this column")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toColumnResponse(column))
}

// Update godoc
// @Summary      Rename, recolor or reclassify a column
// @Tags         columns
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id path string true "Column ID"
// @Param        request body UpdateColumnRequest true "Fields to change"
// @Success      200 {object} ColumnResponse
// @Router       /columns/{id} [put]
func (h *ColumnHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	columnID, ok := pathID(c, "id", "column")
	if !ok {
		return
	}

	column, ok := h.scope.column(c, columnID, userID, model.RoleEditor, "You don't have permission to update this column")
	if !ok {
		return
	}

	var req UpdateColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if req.Title != "" {
		column.Title = req.Title
	}
	if req.Color != nil {
		column.Color = *req.Color
	}
	if req.FlowStatus != "" {
		column.FlowStatus = req.FlowStatus
	}

	if err := h.columnRepo.Update(c.Request.Context(), column); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update column"})
		return
	}
	c.JSON(http.StatusOK, toColumnResponse(column))
}

// Delete godoc
// @Summary      Delete a column and its tasks
// @Tags         columns
// @Security     BearerAuth
// @Param        id path string true "Column ID"
// @Success      200 {object} map[string]string
// @Router       /columns/{id} [delete]
func (h *ColumnHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	columnID, ok := pathID(c, "id", "column")
	if !ok {
		return
	}

	if _, ok := h.scope.column(c, columnID, userID, model.RoleEditor, "You don't have permission to delete this column"); !ok {
		return
	}

	if err := h.columnRepo.Delete(c.Request.Context(), columnID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete column"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Column deleted successfully"})
}

// ReorderColumns godoc
// @Summary      Persist the full column order of a board
// @Tags         columns
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id path string true "Board ID"
// @Param        request body ReorderColumnsRequest true "Every column with its new position"
// @Success      200 {object} map[string]string
// @Failure      400 {object} map[string]string
// @Router       /boards/{id}/columns/reorder [post]
func (h *ColumnHandler) ReorderColumns(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	boardID, ok := pathID(c, "id", "board")
	if !ok {
		return
	}

	if _, ok := h.scope.board(c, boardID, userID, model.RoleEditor, "You don't have permission to reorder columns on this board"); !ok {
		return
	}

	var req ReorderColumnsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	items := toPlacements(req.Columns)
	if err := h.columnRepo.ReorderColumns(c.Request.Context(), boardID, items); err != nil {
		if errors.Is(err, repository.ErrColumnNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "All columns must belong to the specified board"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reorder columns"})
		return
	}

	h.events.Publish(realtime.Event{Type: realtime.EventColumnsReordered, BoardID: boardID, Data: req.Columns})
	c.JSON(http.StatusOK, gin.H{"message": "Columns reordered successfully"})
}

func toPlacements(items []PlacementRequest) []repository.Placement {
	out := make([]repository.Placement, len(items))
	for i, item := range items {
		// ids were validated by the binding
		out[i] = repository.Placement{ID: uuid.MustParse(item.ID), Position: item.Position}
	}
	return out
}

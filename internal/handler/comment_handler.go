package handler

import (
	"errors"
	"net/http"
	"time"

	"kanbanflow/internal/model"
	"kanbanflow/internal/realtime"
	"kanbanflow/internal/repository"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	commentRepo CommentStore
	events      Publisher
	scope       scope
}

func NewCommentHandler(commentRepo CommentStore, taskRepo TaskStore, columnRepo ColumnStore, boardRepo BoardStore, shareRepo ShareStore, events Publisher) *CommentHandler {
	if events == nil {
		events = discardPublisher{}
	}
	return &CommentHandler{
		commentRepo: commentRepo,
		events:      events,
		scope:       scope{boards: boardRepo, shares: shareRepo, columns: columnRepo, tasks: taskRepo},
	}
}

type CommentRequest struct {
	Body string `json:"body" binding:"required"`
}

type CommentResponse struct {
	ID         string `json:"id"`
	TaskID     string `json:"task_id"`
	AuthorID   string `json:"author_id"`
	AuthorName string `json:"author_name,omitempty"`
	Body       string `json:"body"`
	CreatedAt  string `json:"created_at"`
}

func toCommentResponse(comment *model.Comment) CommentResponse {
	return CommentResponse{
		ID:         comment.ID.String(),
		TaskID:     comment.TaskID.String(),
		AuthorID:   comment.AuthorID.String(),
		AuthorName: comment.Author.Name,
		Body:       comment.Body,
		CreatedAt:  comment.CreatedAt.Format(time.RFC3339),
	}
}

// Create godoc
// @Summary      Comment on a task
// @Tags         comments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id path string true "Task ID"
// @Param        request body CommentRequest true "Comment"
// @Success      201 {object} CommentResponse
// @Router       /tasks/{id}/comments [post]
func (h *CommentHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id", "task")
	if !ok {
		return
	}

	// Viewers may comment.
	_, column, ok := h.scope.task(c, taskID, userID, model.RoleViewer, "You don't have permission to comment on this task")
	if !ok {
		return
	}

	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	comment := &model.Comment{TaskID: taskID, AuthorID: userID, Body: req.Body}
	if err := h.commentRepo.Create(c.Request.Context(), comment); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create comment"})
		return
	}

	response := toCommentResponse(comment)
	h.events.Publish(realtime.Event{Type: realtime.EventTaskUpdated, BoardID: column.BoardID, Data: gin.H{"id": taskID}})
	c.JSON(http.StatusCreated, response)
}

// GetByTask godoc
// @Summary      List a task's comments, oldest first
// @Tags         comments
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "Task ID"
// @Success      200 {array} CommentResponse
// @Router       /tasks/{id}/comments [get]
func (h *CommentHandler) GetByTask(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id", "task")
	if !ok {
		return
	}

	if _, _, ok := h.scope.task(c, taskID, userID, model.RoleViewer, "You don't have permission to view this task"); !ok {
		return
	}

	comments, err := h.commentRepo.ListByTask(c.Request.Context(), taskID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve comments"})
		return
	}

	response := make([]CommentResponse, len(comments))
	for i := range comments {
		response[i] = toCommentResponse(&comments[i])
	}
	c.JSON(http.StatusOK, response)
}

// Delete godoc
// @Summary      Delete a comment
// @Description  Authors may delete their own comments; board editors may delete any.
// @Tags         comments
// @Security     BearerAuth
// @Param        id path string true "Comment ID"
// @Success      200 {object} map[string]string
// @Router       /comments/{id} [delete]
func (h *CommentHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	commentID, ok := pathID(c, "id", "comment")
	if !ok {
		return
	}

	comment, err := h.commentRepo.GetByID(c.Request.Context(), commentID)
	if err != nil {
		if errors.Is(err, repository.ErrCommentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve comment"})
		return
	}

	role := model.RoleEditor
	if comment.AuthorID == userID {
		role = model.RoleViewer
	}
	if _, _, ok := h.scope.task(c, comment.TaskID, userID, role, "You don't have permission to delete this comment"); !ok {
		return
	}

	if err := h.commentRepo.Delete(c.Request.Context(), commentID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete comment"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted successfully"})
}

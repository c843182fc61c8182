package handler

import (
	"errors"
	"net/http"
	"time"

	"kanbanflow/internal/model"
	"kanbanflow/internal/repository"

	"github.com/gin-gonic/gin"
)

type AttachmentHandler struct {
	attachmentRepo AttachmentStore
	scope          scope
}

func NewAttachmentHandler(attachmentRepo AttachmentStore, taskRepo TaskStore, columnRepo ColumnStore, boardRepo BoardStore, shareRepo ShareStore) *AttachmentHandler {
	return &AttachmentHandler{
		attachmentRepo: attachmentRepo,
		scope:          scope{boards: boardRepo, shares: shareRepo, columns: columnRepo, tasks: taskRepo},
	}
}

// AttachmentRequest registers a file already uploaded elsewhere.
type AttachmentRequest struct {
	FileName string `json:"file_name" binding:"required"`
	URL      string `json:"url" binding:"required,url"`
}

type AttachmentResponse struct {
	ID         string `json:"id"`
	TaskID     string `json:"task_id"`
	UploadedBy string `json:"uploaded_by"`
	FileName   string `json:"file_name"`
	URL        string `json:"url"`
	CreatedAt  string `json:"created_at"`
}

func toAttachmentResponse(a *model.Attachment) AttachmentResponse {
	return AttachmentResponse{
		ID:         a.ID.String(),
		TaskID:     a.TaskID.String(),
		UploadedBy: a.UploadedBy.String(),
		FileName:   a.FileName,
		URL:        a.URL,
		CreatedAt:  a.CreatedAt.Format(time.RFC3339),
	}
}

// Create godoc
// @Summary      Attach a file reference to a task
// @Tags         attachments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id path string true "Task ID"
// @Param        request body AttachmentRequest true "Attachment"
// @Success      201 {object} AttachmentResponse
// @Router       /tasks/{id}/attachments [post]
func (h *AttachmentHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id", "task")
	if !ok {
		return
	}

	if _, _, ok := h.scope.task(c, taskID, userID, model.RoleEditor, "You don't have permission to modify this task"); !ok {
		return
	}

	var req AttachmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	attachment := &model.Attachment{TaskID: taskID, UploadedBy: userID, FileName: req.FileName, URL: req.URL}
	if err := h.attachmentRepo.Create(c.Request.Context(), attachment); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create attachment"})
		return
	}
	c.JSON(http.StatusCreated, toAttachmentResponse(attachment))
}

// GetByTask godoc
// @Summary      List a task's attachments
// @Tags         attachments
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "Task ID"
// @Success      200 {array} AttachmentResponse
// @Router       /tasks/{id}/attachments [get]
func (h *AttachmentHandler) GetByTask(c *gin.Context) {
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

	attachments, err := h.attachmentRepo.ListByTask(c.Request.Context(), taskID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve attachments"})
		return
	}

	response := make([]AttachmentResponse, len(attachments))
	for i := range attachments {
		response[i] = toAttachmentResponse(&attachments[i])
	}
	c.JSON(http.StatusOK, response)
}

// Delete godoc
// @Summary      Remove an attachment
// @Tags         attachments
// @Security     BearerAuth
// @Param        id path string true "Attachment ID"
// @Success      200 {object} map[string]string
// @Router       /attachments/{id} [delete]
func (h *AttachmentHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	attachmentID, ok := pathID(c, "id", "attachment")
	if !ok {
		return
	}

	attachment, err := h.attachmentRepo.GetByID(c.Request.Context(), attachmentID)
	if err != nil {
		if errors.Is(err, repository.ErrAttachmentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Attachment not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve attachment"})
		return
	}

	if _, _, ok := h.scope.task(c, attachment.TaskID, userID, model.RoleEditor, "You don't have permission to modify this task"); !ok {
		return
	}

	if err := h.attachmentRepo.Delete(c.Request.Context(), attachmentID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete attachment"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Attachment deleted successfully"})
}

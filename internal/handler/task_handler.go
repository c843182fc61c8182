package handler

import (
	"errors"
	"net/http"
	"time"

	"kanbanflow/internal/flow"
	"kanbanflow/internal/model"
	"kanbanflow/internal/realtime"
	"kanbanflow/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type TaskHandler struct {
	taskRepo       TaskStore
	userRepo       UserStore
	commentRepo    CommentStore
	attachmentRepo AttachmentStore
	events         Publisher
	scope          scope
}

func NewTaskHandler(
	taskRepo TaskStore,
	columnRepo ColumnStore,
	boardRepo BoardStore,
	shareRepo ShareStore,
	userRepo UserStore,
	commentRepo CommentStore,
	attachmentRepo AttachmentStore,
	events Publisher,
) *TaskHandler {
	if events == nil {
		events = discardPublisher{}
	}
	return &TaskHandler{
		taskRepo:       taskRepo,
		userRepo:       userRepo,
		commentRepo:    commentRepo,
		attachmentRepo: attachmentRepo,
		events:         events,
		scope:          scope{boards: boardRepo, shares: shareRepo, columns: columnRepo, tasks: taskRepo},
	}
}

type TaskRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	ColumnID    string     `json:"column_id" binding:"required,uuid"`
	DueDate     *time.Time `json:"due_date"`
	Priority    string     `json:"priority" binding:"omitempty,oneof=none low medium high"`
}

type UpdateTaskRequest struct {
	Title       *string `json:"title" binding:"omitempty,min=1"`
	Description *string `json:"description"`
	Priority    *string `json:"priority" binding:"omitempty,oneof=none low medium high"`
}

type TaskMoveRequest struct {
	ColumnID string `json:"column_id" binding:"required,uuid"`
	Position int    `json:"position" binding:"min=1"`
	// Zero versions skip the concurrency check.
	SourceVersion int64 `json:"source_version"`
	TargetVersion int64 `json:"target_version"`
}

type BulkReorderRequest struct {
	ColumnID        string             `json:"column_id" binding:"required,uuid"`
	Items           []PlacementRequest `json:"items" binding:"dive"`
	ExpectedVersion int64              `json:"expected_version"`
}

type TaskAssignRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
}

type DueDateRequest struct {
	DueDate *time.Time `json:"due_date"`
}

type RevisionResponse struct {
	ColumnID string `json:"column_id"`
	Version  int64  `json:"version"`
}

type MoveResponse struct {
	Revisions []RevisionResponse `json:"revisions"`
}

type TaskResponse struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	ColumnID        string  `json:"column_id"`
	AssignedTo      *string `json:"assigned_to,omitempty"`
	AssigneeName    *string `json:"assignee_name,omitempty"`
	CreatedBy       string  `json:"created_by"`
	CreatorName     string  `json:"creator_name,omitempty"`
	DueDate         *string `json:"due_date,omitempty"`
	Priority        string  `json:"priority"`
	Position        int     `json:"position"`
	CommentCount    int     `json:"comment_count"`
	AttachmentCount int     `json:"attachment_count"`
}

func toTaskResponse(task *model.Task) TaskResponse {
	response := TaskResponse{
		ID:          task.ID.String(),
		Title:       task.Title,
		Description: task.Description,
		ColumnID:    task.ColumnID.String(),
		CreatedBy:   task.CreatedBy.String(),
		Priority:    task.Priority,
		Position:    task.Position,
	}
	if response.Priority == "" {
		response.Priority = model.PriorityNone
	}
	if task.DueDate != nil {
		dueDate := task.DueDate.Format(time.RFC3339)
		response.DueDate = &dueDate
	}
	if task.AssignedTo != nil {
		assignedTo := task.AssignedTo.String()
		response.AssignedTo = &assignedTo
		if task.Assignee != nil {
			response.AssigneeName = &task.Assignee.Name
		}
	}
	return response
}

func toRevisions(revs []repository.ColumnVersion) []RevisionResponse {
	out := make([]RevisionResponse, len(revs))
	for i, rev := range revs {
		out[i] = RevisionResponse{ColumnID: rev.ColumnID.String(), Version: rev.Version}
	}
	return out
}

// Create godoc
// @Summary      Create a task at the bottom of a column
// @Tags         tasks
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request body TaskRequest true "Task"
// @Success      201 {object} TaskResponse
// @Failure      422 {object} map[string]string
// @Router       /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	columnID := uuid.MustParse(req.ColumnID)

	column, ok := h.scope.column(c, columnID, userID, model.RoleEditor, "You don't have permission to create tasks on this board")
	if !ok {
		return
	}

	count, err := h.taskRepo.CountByColumnID(c.Request.Context(), columnID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tasks"})
		return
	}
	if int(count) >= flow.Capacity(flow.Status(column.FlowStatus)) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Column is full"})
		return
	}

	task := &model.Task{
		ColumnID:    columnID,
		Title:       req.Title,
		Description: req.Description,
		CreatedBy:   userID,
		DueDate:     req.DueDate,
		Priority:    req.Priority,
		Position:    int(count) + 1,
	}
	if task.Priority == "" {
		task.Priority = model.PriorityNone
	}

	if err := h.taskRepo.Create(c.Request.Context(), task); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create task"})
		return
	}

	response := toTaskResponse(task)
	if creator, err := h.userRepo.GetByID(c.Request.Context(), userID); err == nil {
		response.CreatorName = creator.Name
	}

	h.publish(realtime.EventTaskCreated, column.BoardID, response)
	c.JSON(http.StatusCreated, response)
}

// GetByID godoc
// @Summary      Get a task
// @Tags         tasks
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "Task ID"
// @Success      200 {object} TaskResponse
// @Router       /tasks/{id} [get]
func (h *TaskHandler) GetByID(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id", "task")
	if !ok {
		return
	}

	task, _, ok := h.scope.task(c, taskID, userID, model.RoleViewer, "You don't have permission to view this task")
	if !ok {
		return
	}

	responses, err := h.describe(c, []model.Task{*task})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task details"})
		return
	}
	c.JSON(http.StatusOK, responses[0])
}

// GetByColumnID godoc
// @Summary      List the tasks of a column in order
// @Tags         tasks
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "Column ID"
// @Success      200 {array} TaskResponse
// @Router       /columns/{id}/tasks [get]
func (h *TaskHandler) GetByColumnID(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	columnID, ok := pathID(c, "id", "column")
	if !ok {
		return
	}

	if _, ok := h.scope.column(c, columnID, userID, model.RoleViewer, "You don't have permission to view tasks on this board"); !ok {
		return
	}

	tasks, err := h.taskRepo.GetByColumnID(c.Request.Context(), columnID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tasks"})
		return
	}

	responses, err := h.describe(c, tasks)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task details"})
		return
	}
	c.JSON(http.StatusOK, responses)
}

// describe builds responses with creator names and comment and attachment
// counts, one query per concern.
func (h *TaskHandler) describe(c *gin.Context, tasks []model.Task) ([]TaskResponse, error) {
	ctx := c.Request.Context()
	ids := make([]uuid.UUID, len(tasks))
	for i := range tasks {
		ids[i] = tasks[i].ID
	}

	comments, err := h.commentRepo.CountByTasks(ctx, ids)
	if err != nil {
		return nil, err
	}
	attachments, err := h.attachmentRepo.CountByTasks(ctx, ids)
	if err != nil {
		return nil, err
	}

	creators := make(map[uuid.UUID]string)
	responses := make([]TaskResponse, len(tasks))
	for i := range tasks {
		task := &tasks[i]
		name, cached := creators[task.CreatedBy]
		if !cached {
			creator, err := h.userRepo.GetByID(ctx, task.CreatedBy)
			switch {
			case err == nil:
				name = creator.Name
			case !errors.Is(err, repository.ErrUserNotFound):
				return nil, err
			}
			creators[task.CreatedBy] = name
		}

		responses[i] = toTaskResponse(task)
		responses[i].CreatorName = name
		responses[i].CommentCount = comments[task.ID]
		responses[i].AttachmentCount = attachments[task.ID]
	}
	return responses, nil
}

// Update godoc
// @Summary      Edit a task's title, description or priority
// @Tags         tasks
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id path string true "Task ID"
// @Param        request body UpdateTaskRequest true "Fields to change"
// @Success      200 {object} TaskResponse
// @Router       /tasks/{id} [put]
func (h *TaskHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id", "task")
	if !ok {
		return
	}

	task, column, ok := h.scope.task(c, taskID, userID, model.RoleEditor, "You don't have permission to modify this task")
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Priority != nil {
		task.Priority = *req.Priority
	}

	h.save(c, task, column.BoardID)
}

// SetDueDate godoc
// @Summary      Set or clear a task's due date
// @Tags         tasks
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id path string true "Task ID"
// @Param        request body DueDateRequest true "Due date, null clears it"
// @Success      200 {object} TaskResponse
// @Router       /tasks/{id}/due-date [post]
func (h *TaskHandler) SetDueDate(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id", "task")
	if !ok {
		return
	}

	task, column, ok := h.scope.task(c, taskID, userID, model.RoleEditor, "You don't have permission to modify this task")
	if !ok {
		return
	}

	var req DueDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	task.DueDate = req.DueDate

	h.save(c, task, column.BoardID)
}

func (h *TaskHandler) save(c *gin.Context, task *model.Task, boardID uuid.UUID) {
	if err := h.taskRepo.Update(c.Request.Context(), task); err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update task"})
		return
	}

	response := toTaskResponse(task)
	h.publish(realtime.EventTaskUpdated, boardID, response)
	c.JSON(http.StatusOK, response)
}

// Delete godoc
// @Summary      Delete a task
// @Tags         tasks
// @Security     BearerAuth
// @Param        id path string true "Task ID"
// @Success      200 {object} map[string]string
// @Router       /tasks/{id} [delete]
func (h *TaskHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id", "task")
	if !ok {
		return
	}

	task, column, ok := h.scope.task(c, taskID, userID, model.RoleEditor, "You don't have permission to delete this task")
	if !ok {
		return
	}

	if err := h.taskRepo.Delete(c.Request.Context(), taskID); err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete task"})
		return
	}

	h.publish(realtime.EventTaskDeleted, column.BoardID, gin.H{"id": task.ID, "column_id": task.ColumnID})
	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

// MoveTask godoc
// @Summary      Move a task to a position, possibly in another column
// @Description  Cross-column moves are checked against the kanban flow and the destination's capacity.
// @Tags         tasks
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id path string true "Task ID"
// @Param        request body TaskMoveRequest true "Destination"
// @Success      200 {object} MoveResponse
// @Failure      409 {object} map[string]string
// @Failure      422 {object} map[string]string
// @Router       /tasks/{id}/move [post]
func (h *TaskHandler) MoveTask(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id", "task")
	if !ok {
		return
	}

	_, column, ok := h.scope.task(c, taskID, userID, model.RoleEditor, "You don't have permission to move this task")
	if !ok {
		return
	}

	var req TaskMoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	targetID := uuid.MustParse(req.ColumnID)

	moved, err := h.taskRepo.MoveTask(c.Request.Context(), taskID, targetID, req.Position, req.SourceVersion, req.TargetVersion)
	if err != nil {
		respondWriteError(c, err, "Failed to move task")
		return
	}

	h.publish(realtime.EventTaskMoved, column.BoardID, gin.H{
		"id":          taskID,
		"from_column": column.ID,
		"to_column":   targetID,
		"position":    moved.Position,
	})
	c.JSON(http.StatusOK, MoveResponse{Revisions: toRevisions(moved.Revisions)})
}

// BulkReorder godoc
// @Summary      Persist the full task order of one column
// @Tags         tasks
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request body BulkReorderRequest true "Every task of the column with its new position"
// @Success      200 {object} RevisionResponse
// @Failure      400 {object} map[string]string
// @Failure      409 {object} map[string]string
// @Router       /tasks/bulk/reorder [post]
func (h *TaskHandler) BulkReorder(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req BulkReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	columnID := uuid.MustParse(req.ColumnID)

	column, ok := h.scope.column(c, columnID, userID, model.RoleEditor, "You don't have permission to reorder tasks on this board")
	if !ok {
		return
	}

	rev, err := h.taskRepo.BulkReorder(c.Request.Context(), columnID, toPlacements(req.Items), req.ExpectedVersion)
	if err != nil {
		respondWriteError(c, err, "Failed to reorder tasks")
		return
	}

	h.publish(realtime.EventTasksReordered, column.BoardID, gin.H{"column_id": columnID, "items": req.Items})
	c.JSON(http.StatusOK, RevisionResponse{ColumnID: rev.ColumnID.String(), Version: rev.Version})
}

// respondWriteError maps the errors of the ordering writes to status codes.
func respondWriteError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, repository.ErrTaskNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
	case errors.Is(err, repository.ErrColumnNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Column not found"})
	case errors.Is(err, repository.ErrStaleVersion):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, flow.ErrFlowViolation),
		errors.Is(err, flow.ErrColumnFull),
		errors.Is(err, flow.ErrUnknownColumn):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrInvalidOrder),
		errors.Is(err, repository.ErrCrossBoardMove):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

// AssignUser godoc
// @Summary      Assign a board member to a task
// @Tags         tasks
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id path string true "Task ID"
// @Param        request body TaskAssignRequest true "Assignee"
// @Success      200 {object} TaskResponse
// @Router       /tasks/{id}/assign [post]
func (h *TaskHandler) AssignUser(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id", "task")
	if !ok {
		return
	}

	task, column, ok := h.scope.task(c, taskID, userID, model.RoleEditor, "You don't have permission to assign this task")
	if !ok {
		return
	}

	var req TaskAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	assigneeID := uuid.MustParse(req.UserID)

	assignee, err := h.userRepo.GetByID(c.Request.Context(), assigneeID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve user"})
		return
	}

	hasAccess, err := h.scope.shares.CheckAccess(c.Request.Context(), column.BoardID, assigneeID, model.RoleViewer)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check access"})
		return
	}
	if !hasAccess {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User has no access to this board"})
		return
	}

	if err := h.taskRepo.AssignUser(c.Request.Context(), taskID, assigneeID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to assign user"})
		return
	}

	task.AssignedTo = &assigneeID
	task.Assignee = assignee
	response := toTaskResponse(task)
	h.publish(realtime.EventTaskUpdated, column.BoardID, response)
	c.JSON(http.StatusOK, response)
}

// UnassignUser godoc
// @Summary      Clear a task's assignee
// @Tags         tasks
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "Task ID"
// @Success      200 {object} TaskResponse
// @Router       /tasks/{id}/assign [delete]
func (h *TaskHandler) UnassignUser(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id", "task")
	if !ok {
		return
	}

	task, column, ok := h.scope.task(c, taskID, userID, model.RoleEditor, "You don't have permission to assign this task")
	if !ok {
		return
	}

	if err := h.taskRepo.UnassignUser(c.Request.Context(), taskID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to unassign user"})
		return
	}

	task.AssignedTo = nil
	task.Assignee = nil
	response := toTaskResponse(task)
	h.publish(realtime.EventTaskUpdated, column.BoardID, response)
	c.JSON(http.StatusOK, response)
}

func (h *TaskHandler) publish(eventType string, boardID uuid.UUID, data any) {
	h.events.Publish(realtime.Event{Type: eventType, BoardID: boardID, Data: data})
}

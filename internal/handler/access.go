package handler

import (
	"errors"
	"net/http"

	"kanbanflow/internal/middleware"
	"kanbanflow/internal/model"
	"kanbanflow/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// currentUser reads the authenticated user id, answering 401 when it is absent.
func currentUser(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return uuid.Nil, false
	}
	return userID, true
}

// pathID parses a uuid path parameter, answering 400 when it is malformed.
func pathID(c *gin.Context, param, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name + " ID format"})
		return uuid.Nil, false
	}
	return id, true
}

// scope resolves the board a request touches and checks the caller's role on
// it. Every method writes the error response itself and reports whether the
// handler may continue.
type scope struct {
	boards  BoardStore
	shares  ShareStore
	columns ColumnStore
	tasks   TaskStore
}

func (s scope) board(c *gin.Context, boardID, userID uuid.UUID, role, denied string) (*model.Board, bool) {
	board, err := s.boards.GetByID(c.Request.Context(), boardID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve board"})
		return nil, false
	}
	if board == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Board not found"})
		return nil, false
	}
	if board.OwnerID == userID {
		return board, true
	}

	hasAccess, err := s.shares.CheckAccess(c.Request.Context(), boardID, userID, role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check access"})
		return nil, false
	}
	if !hasAccess {
		c.JSON(http.StatusForbidden, gin.H{"error": denied})
		return nil, false
	}
	return board, true
}

func (s scope) column(c *gin.Context, columnID, userID uuid.UUID, role, denied string) (*model.Column, bool) {
	column, err := s.columns.GetByID(c.Request.Context(), columnID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve column"})
		return nil, false
	}
	if column == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Column not found"})
		return nil, false
	}
	if _, ok := s.board(c, column.BoardID, userID, role, denied); !ok {
		return nil, false
	}
	return column, true
}

func (s scope) task(c *gin.Context, taskID, userID uuid.UUID, role, denied string) (*model.Task, *model.Column, bool) {
	task, err := s.tasks.GetByID(c.Request.Context(), taskID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		}
		return nil, nil, false
	}
	column, ok := s.column(c, task.ColumnID, userID, role, denied)
	if !ok {
		return nil, nil, false
	}
	return task, column, true
}

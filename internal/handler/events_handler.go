package handler

import (
	"log/slog"

	"kanbanflow/internal/model"

	"github.com/gin-gonic/gin"
)

type EventsHandler struct {
	stream EventStream
	logger *slog.Logger
	scope  scope
}

func NewEventsHandler(stream EventStream, boardRepo BoardStore, shareRepo ShareStore, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{
		stream: stream,
		logger: logger,
		scope:  scope{boards: boardRepo, shares: shareRepo},
	}
}

// Subscribe godoc
// @Summary      Follow a board's changes over a websocket
// @Description  The bearer token may be passed as the token query parameter.
// @Tags         events
// @Security     BearerAuth
// @Param        id path string true "Board ID"
// @Success      101
// @Router       /boards/{id}/events [get]
func (h *EventsHandler) Subscribe(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	boardID, ok := pathID(c, "id", "board")
	if !ok {
		return
	}

	if _, ok := h.scope.board(c, boardID, userID, model.RoleViewer, "You don't have access to this board"); !ok {
		return
	}

	// The upgrader has already answered the client when Serve fails.
	if err := h.stream.Serve(c.Writer, c.Request, boardID); err != nil {
		h.logger.Debug("websocket subscription ended", "board_id", boardID, "error", err)
	}
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/octal-backend/internal/http/response"
	"github.com/yungbote/octal-backend/internal/platform/apierr"
	"github.com/yungbote/octal-backend/internal/platform/ctxutil"
	"github.com/yungbote/octal-backend/internal/platform/errs"
	"github.com/yungbote/octal-backend/internal/platform/logger"
	"github.com/yungbote/octal-backend/internal/realtime"
)

type RealtimeHandler struct {
	log *logger.Logger
	hub *realtime.Hub
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.Hub) *RealtimeHandler {
	return &RealtimeHandler{log: log.With("handler", "RealtimeHandler"), hub: hub}
}

// Stream pushes the caller's knowledge and mark events as server-sent
// events until the client disconnects.
func (h *RealtimeHandler) Stream(c *gin.Context) {
	userID := ctxutil.UserID(c.Request.Context())
	if userID == uuid.Nil {
		response.RespondAPIError(c, apierr.New(http.StatusUnauthorized, "unauthorized", errs.ErrUnauthorized))
		return
	}
	client := h.hub.NewClient(userID)
	h.hub.AddChannel(client, realtime.UserChannel(userID))
	h.log.Debug("stream open", "user_id", userID.String(), "client_id", client.ID.String())

	h.hub.ServeHTTP(c.Writer, c.Request, client)

	h.hub.CloseClient(client)
	h.log.Debug("stream closed", "user_id", userID.String(), "client_id", client.ID.String())
}

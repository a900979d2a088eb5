package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// sessionSocket carries turns over a WebSocket. Each text frame
// {"message": "..."} is answered with a turn result or an error frame.
func (s *Server) sessionSocket(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.engine.Session(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: s.origins})
	if err != nil {
		slog.Warn("websocket accept failed", "session_id", id, "error", err)
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	slog.Info("websocket connected", "session_id", id, "request_id", requestID(ctx))

	for {
		var req turnRequest
		if err := wsjson.Read(ctx, conn, &req); err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure || errors.Is(err, ctx.Err()) {
				slog.Info("websocket closed", "session_id", id)
				return
			}
			slog.Warn("websocket read failed", "session_id", id, "error", err)
			_ = conn.Close(websocket.StatusUnsupportedData, "invalid frame")
			return
		}

		var reply any
		if strings.TrimSpace(req.Message) == "" {
			reply = ErrorResponse{Error: errBadRequest("message is required")}
		} else if res, err := s.engine.Turn(ctx, id, req.Message); err != nil {
			status, apiErr := classify(err)
			slog.Warn("websocket turn failed", "session_id", id, "status", status, "error", err)
			reply = ErrorResponse{Error: apiErr}
		} else {
			reply = res
		}

		if err := wsjson.Write(ctx, conn, reply); err != nil {
			slog.Warn("websocket write failed", "session_id", id, "error", err)
			return
		}
	}
}

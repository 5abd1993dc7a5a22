package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	ws "nhooyr.io/websocket"

	"streamfusion/messaging"
)

// pingInterval keeps idle message streams alive through proxies.
const pingInterval = 15 * time.Second

type sendRequest struct {
	Body string `json:"body"`
}

func (a *API) handleUserThread(w http.ResponseWriter, r *http.Request) {
	a.writeThread(w, r, claims(r).UserID, messaging.AdminInbox)
}

func (a *API) handleUserSend(w http.ResponseWriter, r *http.Request) {
	a.send(w, r, claims(r).UserID, messaging.AdminInbox)
}

func (a *API) handleAdminConversations(w http.ResponseWriter, r *http.Request) {
	convs, err := a.messages.Conversations(r.Context(), messaging.AdminInbox)
	if err != nil {
		a.logger.Error().Err(err).Msg("failed to list conversations")
		writeError(w, http.StatusInternalServerError, "messages_unavailable")
		return
	}
	unread, err := a.messages.UnreadCount(r.Context(), messaging.AdminInbox)
	if err != nil {
		a.logger.Error().Err(err).Msg("failed to count unread messages")
		writeError(w, http.StatusInternalServerError, "messages_unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"unread": unread, "conversations": convs})
}

func (a *API) handleAdminThread(w http.ResponseWriter, r *http.Request) {
	a.writeThread(w, r, messaging.AdminInbox, chi.URLParam(r, "user"))
}

func (a *API) handleAdminSend(w http.ResponseWriter, r *http.Request) {
	a.send(w, r, messaging.AdminInbox, chi.URLParam(r, "user"))
}

// writeThread answers with the viewer's thread with other, marking it read.
func (a *API) writeThread(w http.ResponseWriter, r *http.Request, viewer, other string) {
	thread, err := a.messages.Thread(r.Context(), viewer, other)
	if err != nil {
		a.logger.Error().Err(err).Str("viewer", viewer).Str("with", other).Msg("failed to load thread")
		writeError(w, http.StatusInternalServerError, "messages_unavailable")
		return
	}
	writeJSON(w, http.StatusOK, thread)
}

func (a *API) send(w http.ResponseWriter, r *http.Request, from, to string) {
	var req sendRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(to) == "" {
		writeError(w, http.StatusBadRequest, "recipient_required")
		return
	}

	m, err := a.messages.Send(r.Context(), from, to, req.Body)
	switch {
	case errors.Is(err, messaging.ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, "empty_message")
	case errors.Is(err, messaging.ErrMessageTooLong):
		writeError(w, http.StatusBadRequest, "message_too_long")
	case err != nil:
		a.logger.Error().Err(err).Msg("failed to send message")
		writeError(w, http.StatusInternalServerError, "send_failed")
	default:
		writeJSON(w, http.StatusCreated, m)
	}
}

// handleMessageStream pushes every new message to a connected admin.
func (a *API) handleMessageStream(w http.ResponseWriter, r *http.Request) {
	conn, err := ws.Accept(w, r, &ws.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		a.logger.Error().Err(err).Msg("websocket accept failed")
		return
	}
	defer conn.Close(ws.StatusInternalError, "server error")

	sub, cancel := a.messages.Subscribe()
	defer cancel()

	// The stream is write only; CloseRead handles control frames and ends
	// ctx when the client goes away.
	ctx := conn.CloseRead(r.Context())

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			conn.Close(ws.StatusNormalClosure, "context cancelled")
			return
		case <-ticker.C:
			if err := conn.Write(ctx, ws.MessageText, []byte(`{"type":"ping"}`)); err != nil {
				a.logger.Debug().Err(err).Msg("websocket ping failed")
				return
			}
		case payload, ok := <-sub:
			if !ok {
				conn.Close(ws.StatusNormalClosure, "stream closed")
				return
			}
			data, err := json.Marshal(map[string]any{"type": "message", "data": payload})
			if err != nil {
				continue
			}
			if err := conn.Write(ctx, ws.MessageText, data); err != nil {
				a.logger.Debug().Err(err).Msg("websocket write failed")
				return
			}
		}
	}
}

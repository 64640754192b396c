package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"larder/internal/apperror"
	"larder/internal/auth"
	"larder/internal/email"
	"larder/internal/model"
	"larder/internal/push"
	"larder/internal/store"
	"larder/internal/websocket"
)

type ShareHandler struct {
	shares   *store.ShareStore
	lists    *store.GroceryStore
	mail     *email.Client
	notifier *push.Notifier
	hub      *websocket.Hub
	logger   *slog.Logger
}

func NewShareHandler(ss *store.ShareStore, gs *store.GroceryStore, mail *email.Client, notifier *push.Notifier, hub *websocket.Hub, logger *slog.Logger) *ShareHandler {
	return &ShareHandler{shares: ss, lists: gs, mail: mail, notifier: notifier, hub: hub, logger: logger}
}

func (h *ShareHandler) broadcast(action string, id, listID int64) {
	if h.hub != nil {
		h.hub.Broadcast(websocket.NewMessage("share", action, id, listID))
	}
}

type shareRequest struct {
	Email string `json:"email"`
}

// Create invites an email address to a list the caller owns. Notification
// delivery is best effort; the share is created either way.
func (h *ShareHandler) Create(w http.ResponseWriter, r *http.Request) {
	listID, err := pathID(r, "listId")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req shareRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		writeError(w, h.logger, apperror.Validation("a valid email is required"))
		return
	}

	ac, _ := auth.FromContext(r.Context())

	share, err := h.shares.Create(ac.UserID, ac.Email, listID, req.Email)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	listName := ""
	if list, err := h.lists.GetByID(listID); err == nil && list != nil {
		listName = list.Name
	}

	if h.mail != nil && h.mail.Configured() {
		if err := h.mail.SendShareInvite(share.SharedWithEmail, ac.Name, listName); err != nil {
			h.logger.Warn("share invite email failed", "share_id", share.ID, "error", err)
		}
	}
	if h.notifier != nil && share.SharedWithID != nil {
		h.notifier.ShareInvited(*share.SharedWithID, ac.Name, listName)
	}

	h.broadcast("created", share.ID, listID)
	writeJSON(w, http.StatusCreated, share)
}

type respondRequest struct {
	Status string `json:"status"`
}

// Respond accepts or rejects a pending invitation addressed to the caller.
func (h *ShareHandler) Respond(w http.ResponseWriter, r *http.Request) {
	shareID, err := pathID(r, "shareId")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req respondRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	ac, _ := auth.FromContext(r.Context())

	share, err := h.shares.Respond(shareID, ac.UserID, ac.Email, req.Status)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if share.Status == model.ShareStatusAccepted && h.notifier != nil {
		listName := ""
		if list, err := h.lists.GetByID(share.ListID); err == nil && list != nil {
			listName = list.Name
		}
		h.notifier.ShareAccepted(share.OwnerID, ac.Name, listName)
	}

	h.broadcast(share.Status, share.ID, share.ListID)
	writeJSON(w, http.StatusOK, share)
}

func (h *ShareHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	views, err := h.shares.ListPending(ac.UserID, ac.Email)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if views == nil {
		views = []model.ShareView{}
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *ShareHandler) ListAccepted(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	views, err := h.shares.ListAccepted(ac.UserID, ac.Email)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if views == nil {
		views = []model.ShareView{}
	}
	writeJSON(w, http.StatusOK, views)
}

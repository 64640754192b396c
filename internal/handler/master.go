package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"larder/internal/apperror"
	"larder/internal/auth"
	"larder/internal/catalog"
	"larder/internal/model"
	"larder/internal/store"
	"larder/internal/websocket"
)

type MasterHandler struct {
	master *store.MasterStore
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewMasterHandler(ms *store.MasterStore, hub *websocket.Hub, logger *slog.Logger) *MasterHandler {
	return &MasterHandler{master: ms, hub: hub, logger: logger}
}

func (h *MasterHandler) broadcast(action string, id int64) {
	if h.hub != nil {
		h.hub.Broadcast(websocket.NewMessage("master_item", action, id, 0))
	}
}

// Get returns the caller's master list with its items, creating the list on
// first access.
func (h *MasterHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	list, err := h.master.GetOrCreate(userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	items, err := h.master.ListItems(userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if items == nil {
		items = []model.MasterListItem{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"list":  list,
		"items": items,
	})
}

func (h *MasterHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.master.ListItems(auth.UserID(r.Context()))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if items == nil {
		items = []model.MasterListItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

type masterItemRequest struct {
	Name string           `json:"name"`
	Tags []store.TagInput `json:"tags"`
}

// AddItem get-or-creates a catalog item by case-insensitive name. 201 when a
// new item was created, 200 with the existing item otherwise.
func (h *MasterHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req masterItemRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, h.logger, apperror.Validation("name is required"))
		return
	}

	item, created, err := h.master.AddItem(auth.UserID(r.Context()), req.Name, req.Tags)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		h.broadcast("created", item.ID)
	}
	writeJSON(w, status, item)
}

type updateMasterItemRequest struct {
	Name      *string           `json:"name"`
	Tags      *[]store.TagInput `json:"tags"`
	Completed *bool             `json:"completed"`
}

func (h *MasterHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := pathID(r, "itemId")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req updateMasterItemRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		if trimmed == "" {
			writeError(w, h.logger, apperror.Validation("name must not be empty"))
			return
		}
		req.Name = &trimmed
	}

	item, err := h.master.UpdateItem(auth.UserID(r.Context()), itemID, store.UpdateMasterItemParams{
		Name:      req.Name,
		Tags:      req.Tags,
		Completed: req.Completed,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.broadcast("updated", item.ID)
	writeJSON(w, http.StatusOK, item)
}

// DeleteItem removes a catalog item and every grocery item referencing it.
// When the item is still referenced by any list the request must carry
// confirm=true, otherwise a 409 with the usage count is returned.
func (h *MasterHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := pathID(r, "itemId")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	userID := auth.UserID(r.Context())

	if r.URL.Query().Get("confirm") != "true" {
		count, err := h.master.UsageCount(itemID)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		if count > 0 {
			writeJSON(w, http.StatusConflict, map[string]any{
				"error":       "item is in use; pass confirm=true to delete it from every list",
				"usage_count": count,
			})
			return
		}
	}

	if err := h.master.DeleteItem(userID, itemID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.broadcast("deleted", itemID)
	w.WriteHeader(http.StatusNoContent)
}

// SuggestTag returns a suggested tag word for an item name, or an empty
// suggestion when nothing matches.
func (h *MasterHandler) SuggestTag(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		writeError(w, h.logger, apperror.Validation("name query parameter is required"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"suggestion": catalog.Suggest(name)})
}

package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"larder/internal/apperror"
	"larder/internal/auth"
	"larder/internal/model"
	"larder/internal/store"
	"larder/internal/websocket"
)

type GroceryHandler struct {
	lists  *store.GroceryStore
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewGroceryHandler(gs *store.GroceryStore, hub *websocket.Hub, logger *slog.Logger) *GroceryHandler {
	return &GroceryHandler{lists: gs, hub: hub, logger: logger}
}

func (h *GroceryHandler) broadcast(entity, action string, id, listID int64) {
	if h.hub != nil {
		h.hub.Broadcast(websocket.NewMessage(entity, action, id, listID))
	}
}

func (h *GroceryHandler) ListLists(w http.ResponseWriter, r *http.Request) {
	lists, err := h.lists.ListByUser(auth.UserID(r.Context()))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if lists == nil {
		lists = []model.GroceryList{}
	}
	writeJSON(w, http.StatusOK, lists)
}

type listRequest struct {
	Name string `json:"name"`
}

func (h *GroceryHandler) CreateList(w http.ResponseWriter, r *http.Request) {
	var req listRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, h.logger, apperror.Validation("name is required"))
		return
	}

	list, err := h.lists.Create(auth.UserID(r.Context()), req.Name)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.broadcast("list", "created", list.ID, list.ID)
	writeJSON(w, http.StatusCreated, list)
}

func (h *GroceryHandler) RenameList(w http.ResponseWriter, r *http.Request) {
	listID, err := pathID(r, "listId")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req listRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, h.logger, apperror.Validation("name is required"))
		return
	}

	list, err := h.lists.Rename(auth.UserID(r.Context()), listID, req.Name)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.broadcast("list", "updated", list.ID, list.ID)
	writeJSON(w, http.StatusOK, list)
}

func (h *GroceryHandler) DeleteList(w http.ResponseWriter, r *http.Request) {
	listID, err := pathID(r, "listId")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.lists.Delete(auth.UserID(r.Context()), listID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.broadcast("list", "deleted", listID, listID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *GroceryHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	listID, err := pathID(r, "listId")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	items, err := h.lists.ListItems(listID, auth.UserID(r.Context()))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if items == nil {
		items = []model.ListItemView{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *GroceryHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	listID, err := pathID(r, "listId")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, h.logger, apperror.Validation("name is required"))
		return
	}

	item, err := h.lists.AddItem(listID, req.Name, auth.UserID(r.Context()))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.broadcast("item", "created", item.ID, listID)
	writeJSON(w, http.StatusCreated, item)
}

type updateItemRequest struct {
	Name      *string           `json:"name"`
	Completed *bool             `json:"completed"`
	Tags      *[]store.TagInput `json:"tags"`
}

func (h *GroceryHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	listID, err := pathID(r, "listId")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	itemID, err := pathID(r, "itemId")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req updateItemRequest
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

	item, err := h.lists.UpdateItem(listID, itemID, auth.UserID(r.Context()), store.UpdateListItemParams{
		Name:      req.Name,
		Completed: req.Completed,
		Tags:      req.Tags,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.broadcast("item", "updated", item.ID, listID)
	writeJSON(w, http.StatusOK, item)
}

func (h *GroceryHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	listID, err := pathID(r, "listId")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	itemID, err := pathID(r, "itemId")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.lists.DeleteItem(listID, itemID, auth.UserID(r.Context())); err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.broadcast("item", "deleted", itemID, listID)
	w.WriteHeader(http.StatusNoContent)
}

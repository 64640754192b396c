package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"larder/internal/apperror"
	"larder/internal/auth"
	"larder/internal/model"
	"larder/internal/store"
)

type TagHandler struct {
	tags   *store.TagStore
	logger *slog.Logger
}

func NewTagHandler(ts *store.TagStore, logger *slog.Logger) *TagHandler {
	return &TagHandler{tags: ts, logger: logger}
}

// List returns the union of the caller's own tags and tags reachable through
// accepted shares, deduplicated by text.
func (h *TagHandler) List(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	tags, err := h.tags.ListForUser(ac.UserID, ac.Email)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if tags == nil {
		tags = []model.Tag{}
	}
	writeJSON(w, http.StatusOK, tags)
}

func (h *TagHandler) Delete(w http.ResponseWriter, r *http.Request) {
	text := strings.TrimSpace(r.PathValue("text"))
	if text == "" {
		writeError(w, h.logger, apperror.Validation("tag text is required"))
		return
	}

	if err := h.tags.Delete(auth.UserID(r.Context()), text); err != nil {
		writeError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

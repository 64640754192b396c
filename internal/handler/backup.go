package handler

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"larder/internal/apperror"
	"larder/internal/backup"
	"larder/internal/model"
	"larder/internal/store"
)

type BackupHandler struct {
	manager *backup.Manager
	backups *store.BackupStore
	logger  *slog.Logger
}

func NewBackupHandler(m *backup.Manager, bs *store.BackupStore, logger *slog.Logger) *BackupHandler {
	return &BackupHandler{manager: m, backups: bs, logger: logger}
}

// List returns backup history plus the manager's current status.
func (h *BackupHandler) List(w http.ResponseWriter, r *http.Request) {
	backups, err := h.backups.List(50)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if backups == nil {
		backups = []model.Backup{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  h.manager.Status(),
		"backups": backups,
	})
}

// RunNow triggers an immediate backup.
func (h *BackupHandler) RunNow(w http.ResponseWriter, r *http.Request) {
	if !h.manager.Enabled() {
		writeError(w, h.logger, apperror.Conflict("backups are not configured"))
		return
	}

	id, err := h.manager.RunNow(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	record, err := h.backups.GetByID(id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, record)
}

// Download streams a completed backup snapshot, still encrypted, as a file
// attachment.
func (h *BackupHandler) Download(w http.ResponseWriter, r *http.Request) {
	if !h.manager.Enabled() {
		writeError(w, h.logger, apperror.Conflict("backups are not configured"))
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	record, err := h.backups.GetByID(id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if record == nil || record.Status != model.BackupStatusCompleted {
		writeError(w, h.logger, apperror.NotFound("Backup not found"))
		return
	}

	body, size, err := h.manager.Download(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", record.Filename))
	if size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	}
	if _, err := io.Copy(w, body); err != nil {
		h.logger.Warn("backup download interrupted", "backup_id", id, "error", err)
	}
}

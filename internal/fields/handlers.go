package fields

import (
	"net/http"
	"time"

	"github.com/EmpoweredVote/EV-FieldRecords/internal/httputil"
	"go.uber.org/zap"
)

type Handler struct {
	repo *Repository
	log  *zap.Logger
}

func NewHandler(repo *Repository, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{repo: repo, log: log}
}

// CreateHandler handles POST /fields.
func (h *Handler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var in CreateFieldInput
	if err := httputil.DecodeJSON(w, r, &in); err != nil {
		httputil.RespondError(w, h.log, "create field", err)
		return
	}

	t0 := time.Now()
	id, err := h.repo.Create(r.Context(), in.Name, in.Boundary)
	httputil.AddServerTiming(w, "db", time.Since(t0))
	if err != nil {
		httputil.RespondError(w, h.log, "create field", err)
		return
	}

	h.log.Info("field created", zap.Int64("id", id))
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "id": id})
}

// ListHandler handles GET /fields.
func (h *Handler) ListHandler(w http.ResponseWriter, r *http.Request) {
	t0 := time.Now()
	out, err := h.repo.List(r.Context())
	httputil.AddServerTiming(w, "db", time.Since(t0))
	if err != nil {
		httputil.RespondError(w, h.log, "list fields", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"fields": out})
}

package health

import (
	"context"
	"net/http"
	"time"

	"github.com/EmpoweredVote/EV-FieldRecords/internal/httputil"
	"github.com/EmpoweredVote/EV-FieldRecords/internal/spatial"
	"go.uber.org/zap"
)

type Checker interface {
	Health(ctx context.Context) (spatial.Health, error)
}

type Response struct {
	OK      bool   `json:"ok"`
	DB      int    `json:"db,omitempty"`
	PostGIS string `json:"postgis,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Handler reports store connectivity and the PostGIS version. Failures are
// 503 so load balancers take the instance out of rotation.
func Handler(c Checker, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t0 := time.Now()
		h, err := c.Health(r.Context())
		httputil.AddServerTiming(w, "db", time.Since(t0))
		if err != nil {
			log.Warn("health check failed", zap.Error(err))
			httputil.WriteJSON(w, http.StatusServiceUnavailable, Response{OK: false, Error: "database unavailable"})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, Response{OK: true, DB: h.DB, PostGIS: h.PostGIS})
	}
}

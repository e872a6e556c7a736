package routes

import (
	"fmt"
	"net/http"
	"time"

	"github.com/EmpoweredVote/EV-FieldRecords/internal/fields"
	"github.com/EmpoweredVote/EV-FieldRecords/internal/health"
	"github.com/EmpoweredVote/EV-FieldRecords/internal/middleware"
	"github.com/EmpoweredVote/EV-FieldRecords/internal/observations"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Deps struct {
	Fields       *fields.Handler
	Observations *observations.Handler
	Health       health.Checker

	AllowedOrigins []string
	RequestTimeout time.Duration
	WriteRateLimit float64
	WriteBurst     int

	// Gatherer backs /metrics. Nil leaves the endpoint out.
	Gatherer prometheus.Gatherer
	Log      *zap.Logger
}

func RootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "Server is up!")
}

// NewRouter assembles the HTTP surface. Field and observation writes share
// one rate limiter.
func NewRouter(d Deps) http.Handler {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(log.Named("http")))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(d.AllowedOrigins))

	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		if d.RequestTimeout > 0 {
			r.Use(chimw.Timeout(d.RequestTimeout))
		}
		writeLimit := middleware.RateLimit(d.WriteRateLimit, d.WriteBurst)

		r.Get("/", RootHandler)
		r.Get("/health", health.Handler(d.Health, log.Named("health")))
		r.Mount("/fields", fields.SetupRoutes(d.Fields, writeLimit))
		r.Mount("/observations", observations.SetupRoutes(d.Observations, writeLimit))
	})

	return r
}

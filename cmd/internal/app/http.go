package app

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	voteapi "github.com/MH469Arya/ProfRankSystem/cmd/internal/vote/api"
)

func registerHTTP(mux *http.ServeMux, log Logger, cfg Config, rt *Runtime, votes *voteapi.Handler) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if cfg.ReadinessRequireDB && rt.Pool == nil {
			http.Error(w, "db not configured", http.StatusServiceUnavailable)
			return
		}
		if rt.Pool != nil {
			if err := PingDB(r.Context(), rt.Pool, 2*time.Second); err != nil {
				log.Info("readyz.db.not_ready", "err", err)
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready\n"))
	})

	mux.Handle("/metrics", promhttp.HandlerFor(rt.Registry, promhttp.HandlerOpts{Registry: rt.Registry}))

	if votes != nil {
		votes.Register(mux)
	}
}

// handler builds the full middleware chain around the routes.
func handler(mux http.Handler, cfg Config, log Logger) http.Handler {
	var h http.Handler = mux
	h = WithSecurityHeaders(h)
	if len(cfg.CORSAllowedOrigins) > 0 {
		h = WithCORS(h, cfg, log)
	}
	return WithRequestLogging(h, log)
}

package server

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ourlineintime/lineintime/server/auth"
	"github.com/ourlineintime/lineintime/server/handler/archive"
	"github.com/ourlineintime/lineintime/server/handler/assets"
	"github.com/ourlineintime/lineintime/server/handler/memories"
	"github.com/ourlineintime/lineintime/server/middleware"
	"github.com/ourlineintime/lineintime/server/resp"
	"github.com/ourlineintime/lineintime/server/state"
)

func Routes(st *state.State, verifier auth.Verifier, reg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()

	authed := func(h http.Handler) http.Handler {
		return middleware.Authenticate(verifier, h)
	}
	admin := func(h http.Handler) http.Handler {
		return middleware.Authenticate(verifier, middleware.RequireAdmin(h))
	}

	mux.Handle("POST /api/memories", authed(memories.HandleCreate(st)))
	mux.Handle("GET /api/memories", authed(memories.HandleList(st)))
	mux.Handle("GET /api/memories/search", authed(memories.HandleSearch(st)))
	mux.Handle("GET /api/memories/{id}", authed(memories.HandleGet(st)))
	mux.Handle("PUT /api/memories/{id}", authed(memories.HandleUpdate(st)))
	mux.Handle("DELETE /api/memories/{id}", authed(memories.HandleDelete(st)))

	mux.Handle("POST /api/media/upload", authed(assets.HandleUpload(st)))
	mux.Handle("POST /api/media/batch-upload", authed(assets.HandleBatchUpload(st)))
	mux.Handle("GET /api/media/memory/{memoryId}", authed(assets.HandleListByMemory(st)))
	mux.Handle("GET /api/media/{id}", authed(assets.HandleGet(st)))
	mux.Handle("DELETE /api/media/{id}", authed(assets.HandleDelete(st)))

	mux.Handle("GET /api/export/me", authed(archive.HandleUserExport(st)))
	mux.Handle("GET /api/export/data", admin(archive.HandleFamilyExport(st)))
	mux.Handle("POST /api/export/backup", admin(archive.HandleBackup(st)))

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		resp.WriteOK(w, map[string]string{"status": "ok"})
	})
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	return middleware.NewHTTPMetrics(reg).Instrument(mux)
}

func Start(st *state.State, handler http.Handler) error {
	bindAddress := fmt.Sprintf("%v:%v", st.Cfg.Server.Address, st.Cfg.Server.Port)
	st.Log.Infow("serving http requests", "address", bindAddress)
	return http.ListenAndServe(bindAddress, handler)
}

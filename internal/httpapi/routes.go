package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/canvas-sync/backend/internal/room"
	"github.com/canvas-sync/backend/internal/ws"
)

func SetupRoutes(r *room.Room, log *zap.Logger) http.Handler {
	mux := chi.NewRouter()

	mux.Get("/healthz", Healthz)
	mux.Get("/ws", ws.Handler(r, log))

	// Operational surface; not part of the sync protocol.
	mux.Get("/status", Status(r))
	mux.Post("/reset", ResetOwnership(r, log))
	return mux
}

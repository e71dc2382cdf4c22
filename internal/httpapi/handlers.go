package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/canvas-sync/backend/internal/room"
)

const viewTimeout = 2 * time.Second

// Status reports connection/object counts and per-record summaries. Read
// only; useful for eyeballing a running process, nothing consumes it
// programmatically.
func Status(r *room.Room) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		reply := make(chan room.View, 1)
		r.Inbox() <- room.GetView{Reply: reply}

		select {
		case view := <-reply:
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(view)
		case <-time.After(viewTimeout):
			http.Error(w, "room busy", http.StatusServiceUnavailable)
		}
	}
}

// ResetOwnership clears every object lock and re-broadcasts the snapshot.
// Administrative escape hatch, not steady-state protocol flow.
func ResetOwnership(r *room.Room, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		r.Inbox() <- room.Reset{}
		log.Info("admin reset requested", zap.String("remote", req.RemoteAddr))
		w.WriteHeader(http.StatusAccepted)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

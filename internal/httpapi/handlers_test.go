package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/canvas-sync/backend/internal/objects"
	"github.com/canvas-sync/backend/internal/protocol"
	"github.com/canvas-sync/backend/internal/room"
)

func newTestServer(t *testing.T) (*room.Room, http.Handler) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	store := objects.Seed(2, []string{"#abc"})
	r := room.New(ctx, store, room.DefaultThrottle, zap.NewNop())
	return r, SetupRoutes(r, zap.NewNop())
}

func TestHealthz(t *testing.T) {
	_, h := newTestServer(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz: want 200, got %d", rec.Code)
	}
}

func TestStatus_ReportsCountsAndSummaries(t *testing.T) {
	r, h := newTestServer(t)

	out := make(chan protocol.Envelope, 8)
	r.Inbox() <- room.Join{ConnID: "A", Outbox: out}
	<-out // drain init

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want 200, got %d", rec.Code)
	}

	var view room.View
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("status body: %v", err)
	}
	if view.Connections != 1 || view.Objects != 2 {
		t.Fatalf("want 1 connection / 2 objects, got %d/%d", view.Connections, view.Objects)
	}
	if len(view.Users) != 1 || view.Users[0].ConnectionID != "A" {
		t.Fatalf("user summary missing: %+v", view.Users)
	}
	if len(view.ObjectList) != 2 {
		t.Fatalf("object summary missing: %+v", view.ObjectList)
	}
}

func TestReset_ClearsOwnership(t *testing.T) {
	r, h := newTestServer(t)

	out := make(chan protocol.Envelope, 8)
	r.Inbox() <- room.Join{ConnID: "A", Outbox: out}
	<-out
	r.Inbox() <- room.Pickup{ConnID: "A", ObjectID: "obj-1"}
	<-out // grant broadcast

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/reset", nil))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("reset: want 202, got %d", rec.Code)
	}

	// Reset is async through the inbox; poll status until it lands.
	deadline := time.Now().Add(time.Second)
	for {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
		var view room.View
		if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
			t.Fatalf("status body: %v", err)
		}
		cleared := true
		for _, obj := range view.ObjectList {
			if obj.OwnerID != nil {
				cleared = false
			}
		}
		if cleared {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("reset never cleared ownership: %+v", view.ObjectList)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

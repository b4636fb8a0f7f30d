package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/stratacms/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context, *readpref.ReadPref) error { return f.err }

func TestHandler_Check(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantState  string
		wantMongo  string
	}{
		{"healthy", nil, http.StatusOK, "ok", "ok"},
		{"mongo down", errors.New("server selection timeout"), http.StatusServiceUnavailable, "degraded", "unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(fakePinger{err: tt.err}, zap.NewNop())
			rec := httptest.NewRecorder()
			h.Check(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("Check() status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var resp Response
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Status != tt.wantState || resp.Services["mongodb"] != tt.wantMongo {
				t.Errorf("Check() = %+v", resp)
			}
		})
	}
}

func TestHandler_Ready_NotReady(t *testing.T) {
	h := NewHandler(fakePinger{err: errors.New("no primary")}, zap.NewNop())
	rec := httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Ready() status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
	if body := rec.Body.String(); body != `{"status":"not ready"}` {
		t.Errorf("Ready() body = %q", body)
	}
}

func TestHandler_Ready_Mongo(t *testing.T) {
	db := testutil.SetupTestDB(t)

	h := NewHandler(db.Client(), zap.NewNop())
	rec := httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("Ready() status = %d, want %d", rec.Code, http.StatusOK)
	}
	if body := rec.Body.String(); body != `{"status":"ready"}` {
		t.Errorf("Ready() body = %q, want %q", body, `{"status":"ready"}`)
	}
}

func TestHandler_Live(t *testing.T) {
	// Live never pings, so even a broken pinger is fine.
	h := NewHandler(fakePinger{err: errors.New("down")}, zap.NewNop())
	rec := httptest.NewRecorder()
	h.Live(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("Live() status = %d, want %d", rec.Code, http.StatusOK)
	}
	if body := rec.Body.String(); body != `{"status":"alive"}` {
		t.Errorf("Live() body = %q, want %q", body, `{"status":"alive"}`)
	}
}

func TestRoutes(t *testing.T) {
	h := NewHandler(fakePinger{}, zap.NewNop())
	router := Routes(h)

	for _, path := range []string{"/", "/ready", "/live"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d, want %d", path, rec.Code, http.StatusOK)
		}
	}
}

func TestMountRootEndpoints(t *testing.T) {
	h := NewHandler(fakePinger{}, zap.NewNop())
	r := chi.NewRouter()
	MountRootEndpoints(r, h)

	for _, path := range []string{"/ready", "/readyz", "/livez"} {
		t.Run(path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			if rec.Code != http.StatusOK {
				t.Errorf("%s status = %d, want %d", path, rec.Code, http.StatusOK)
			}
		})
	}
}

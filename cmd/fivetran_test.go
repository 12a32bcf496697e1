package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// fakeFivetran emulates the endpoints used while provisioning. Connections of services listed in
// databases report schema capture as unsupported, those listed in failing fail their setup tests.
type fakeFivetran struct {
	mu    sync.Mutex
	calls []string

	databases map[string]bool
	failing   map[string]bool
	schemas   map[string]any
}

func (f *fakeFivetran) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeFivetran) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func writeData(w http.ResponseWriter, status int, data any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"code": "Success", "data": data})
}

func (f *fakeFivetran) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.record(r.Method + " " + r.URL.Path)

	var body map[string]any
	if r.Body != nil {
		buf, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(buf, &body)
	}

	segments := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/groups":
		writeData(w, http.StatusOK, map[string]any{"id": "group_1", "name": body["name"]})

	case r.Method == http.MethodPost && r.URL.Path == "/destinations":
		w.WriteHeader(http.StatusConflict)
		_, _ = io.WriteString(w, `{"code":"Conflict","message":"destination already exists"}`)

	case r.Method == http.MethodPost && r.URL.Path == "/connections":
		writeData(w, http.StatusCreated, map[string]any{"id": fmt.Sprintf("conn_%s", body["service"]), "paused": true})

	case len(segments) == 3 && segments[2] == "test":
		status := "PASSED"
		if f.failing[segments[1]] {
			status = "FAILED"
		}
		writeData(w, http.StatusOK, map[string]any{"setup_tests": []map[string]any{
			{"title": "Validating credentials", "status": status, "message": "invalid password"},
		}})

	case len(segments) == 2 && r.Method == http.MethodPatch:
		if body["schema_status"] == "blocked_on_capture" && f.databases[segments[1]] {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"code":"UnsupportedOperation","message":"Service does not support schema capturing"}`)
			return
		}
		writeData(w, http.StatusOK, map[string]any{"id": segments[1]})

	case len(segments) == 2 && r.Method == http.MethodGet:
		writeData(w, http.StatusOK, map[string]any{
			"id":            segments[1],
			"service":       strings.TrimPrefix(segments[1], "conn_"),
			"schema":        "erp",
			"schema_status": "blocked_on_customer",
			"status":        map[string]any{"sync_state": "scheduled", "setup_state": "connected"},
			"succeeded_at":  "2024-03-01T10:00:00Z",
			"failed_at":     nil,
		})

	case len(segments) == 3 && segments[2] == "schemas" && r.Method == http.MethodGet:
		writeData(w, http.StatusOK, map[string]any{"schemas": f.schemas})

	case len(segments) == 3 && segments[2] == "schemas" && r.Method == http.MethodPatch:
		writeData(w, http.StatusOK, map[string]any{})

	case len(segments) == 3 && segments[2] == "sync":
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, `{"code":"Success","message":"Sync has been successfully triggered"}`)

	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"code":"NotFound"}`)
	}
}

func newFakeFivetran(t *testing.T) (*fakeFivetran, *httptest.Server) {
	t.Helper()

	fake := &fakeFivetran{
		databases: map[string]bool{"conn_postgres": true},
		failing:   map[string]bool{},
		schemas: map[string]any{
			"PUBLIC": map[string]any{"enabled": true, "tables": map[string]any{
				"orders":    map[string]any{"enabled": true},
				"customers": map[string]any{"enabled": true},
			}},
		},
	}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)
	return fake, server
}

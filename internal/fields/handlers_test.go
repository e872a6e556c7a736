package fields_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/EmpoweredVote/EV-FieldRecords/internal/fields"
	"github.com/EmpoweredVote/EV-FieldRecords/internal/geometry"
	"github.com/EmpoweredVote/EV-FieldRecords/internal/spatial"
	"go.uber.org/zap"
)

func newTestServer(store *fakeStore) *httptest.Server {
	h := fields.NewHandler(fields.NewRepository(store, geometry.Codec{}), zap.NewNop())
	return httptest.NewServer(fields.SetupRoutes(h, nil))
}

func postJSON(t *testing.T, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp, out
}

func TestCreateHandler_OK(t *testing.T) {
	ts := newTestServer(&fakeStore{})
	defer ts.Close()

	resp, out := postJSON(t, ts.URL+"/", `{"name":"North 40","boundary":`+square+`}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", resp.StatusCode, out)
	}
	if out["ok"] != true || out["id"] != float64(1) {
		t.Errorf("unexpected body: %v", out)
	}
	if resp.Header.Get("Server-Timing") == "" {
		t.Error("expected Server-Timing header")
	}
}

func TestCreateHandler_BadRequest(t *testing.T) {
	store := &fakeStore{}
	ts := newTestServer(store)
	defer ts.Close()

	bodies := []string{
		`{"boundary":` + square + `}`,
		`{"name":"North 40"}`,
		`{"name":"North 40","boundary":{"type":"LineString","coordinates":[[0,0],[1,1]]}}`,
		`not json`,
	}
	for _, body := range bodies {
		resp, out := postJSON(t, ts.URL+"/", body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", body, resp.StatusCode)
		}
		if msg, _ := out["error"].(string); msg == "" {
			t.Errorf("%s: expected error message, got %v", body, out)
		}
	}
	if len(store.inserts) != 0 {
		t.Errorf("expected no inserts, got %d", len(store.inserts))
	}
}

func TestCreateHandler_StoreFailure(t *testing.T) {
	ts := newTestServer(&fakeStore{err: &spatial.StoreError{Op: "insert fields", Err: errors.New("boom")}})
	defer ts.Close()

	resp, _ := postJSON(t, ts.URL+"/", `{"name":"North 40","boundary":`+square+`}`)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", resp.StatusCode)
	}
}

// Boundaries are embedded as GeoJSON objects, not quoted strings.
func TestListHandler(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	ts := newTestServer(&fakeStore{rows: []fields.FieldOut{{
		ID:        7,
		Name:      "North 40",
		Boundary:  geometry.GeoJSON(square),
		AreaM2:    1.2308e10,
		CreatedAt: created,
	}}})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var out struct {
		Fields []struct {
			ID       int64           `json:"id"`
			Name     string          `json:"name"`
			Boundary json.RawMessage `json:"boundary"`
			AreaM2   float64         `json:"area_m2"`
		} `json:"fields"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Fields) != 1 || out.Fields[0].ID != 7 || out.Fields[0].AreaM2 != 1.2308e10 {
		t.Fatalf("unexpected fields: %+v", out.Fields)
	}
	if b := out.Fields[0].Boundary; len(b) == 0 || b[0] != '{' {
		t.Errorf("expected boundary object, got %s", b)
	}
}

func TestListHandler_Empty(t *testing.T) {
	ts := newTestServer(&fakeStore{})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	var out map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(out["fields"]) != "[]" {
		t.Errorf("expected empty array, got %s", out["fields"])
	}
}

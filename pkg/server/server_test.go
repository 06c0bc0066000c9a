package server

import (
	"bytes"
	"context"
	"encoding/json"
	stdio "io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/ecomap/pkg/cache"
	"github.com/matzehuels/ecomap/pkg/errors"
	"github.com/matzehuels/ecomap/pkg/interact"
	"github.com/matzehuels/ecomap/pkg/observability"
	"github.com/matzehuels/ecomap/pkg/pipeline"
	"github.com/matzehuels/ecomap/pkg/session"
	"github.com/matzehuels/ecomap/pkg/store"
)

const testCSV = `Company,Group,Subgroup
Acme,Infrastructure,Compute
Globex,Infrastructure,
Initech,Data,
`

type testServer struct {
	t       *testing.T
	ts      *httptest.Server
	backend *session.MemoryStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := log.New(stdio.Discard)
	backend := session.NewMemoryStore()
	mgr := NewManager(backend, nil, 0, logger)
	runner := pipeline.NewRunner(cache.NewMemoryCache(), nil, logger)
	srv := New(Config{AllowedOrigins: []string{"http://localhost:5173"}}, mgr, runner, logger)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &testServer{t: t, ts: ts, backend: backend}
}

func (s *testServer) do(method, path, contentType string, body stdio.Reader) *http.Response {
	s.t.Helper()
	req, err := http.NewRequest(method, s.ts.URL+path, body)
	if err != nil {
		s.t.Fatal(err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		s.t.Fatal(err)
	}
	s.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (s *testServer) json(method, path string, body any, wantStatus int, out any) {
	s.t.Helper()
	var r stdio.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			s.t.Fatal(err)
		}
		r = bytes.NewReader(data)
	}
	resp := s.do(method, path, "application/json", r)
	s.check(resp, wantStatus, out)
}

func (s *testServer) upload(path, field string, files map[string]string, wantStatus int, out any) {
	s.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range files {
		fw, err := mw.CreateFormFile(field, name)
		if err != nil {
			s.t.Fatal(err)
		}
		fw.Write([]byte(content))
	}
	mw.Close()
	resp := s.do(http.MethodPost, path, mw.FormDataContentType(), &buf)
	s.check(resp, wantStatus, out)
}

func (s *testServer) check(resp *http.Response, wantStatus int, out any) {
	s.t.Helper()
	if resp.StatusCode != wantStatus {
		body, _ := stdio.ReadAll(resp.Body)
		s.t.Fatalf("%s %s: status = %d, want %d: %s", resp.Request.Method, resp.Request.URL.Path, resp.StatusCode, wantStatus, body)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			s.t.Fatalf("decode: %v", err)
		}
	}
}

func (s *testServer) create() State {
	s.t.Helper()
	var st State
	s.json(http.MethodPost, "/api/v1/sessions", nil, http.StatusCreated, &st)
	if !session.ValidID(st.ID) {
		s.t.Fatalf("session id = %q", st.ID)
	}
	return st
}

func TestRoundTrip(t *testing.T) {
	s := newTestServer(t)
	created := s.create()
	if !created.Empty {
		t.Error("new session should be empty")
	}
	base := "/api/v1/sessions/" + created.ID

	var st State
	s.upload(base+"/upload", "file", map[string]string{"companies.csv": testCSV}, http.StatusOK, &st)
	if st.Pending == nil || st.Pending.Rows != 3 {
		t.Fatalf("Pending = %+v, want 3 rows", st.Pending)
	}
	if st.Pending.Suggested.CompanyName != "Company" || st.Pending.Suggested.Category != "Group" {
		t.Errorf("Suggested = %+v", st.Pending.Suggested)
	}
	if len(st.Pending.Preview) != 3 {
		t.Errorf("Preview has %d rows, want 3", len(st.Pending.Preview))
	}

	s.json(http.MethodPost, base+"/mapping", st.Pending.Suggested, http.StatusOK, &st)
	if st.Pending != nil || st.Empty || st.Companies != 3 || len(st.Categories) != 2 {
		t.Fatalf("after mapping: pending=%v empty=%v companies=%d categories=%d",
			st.Pending, st.Empty, st.Companies, len(st.Categories))
	}

	s.json(http.MethodPost, base+"/categories/Data/move", map[string]float64{"x": 400, "y": 600}, http.StatusOK, &st)
	moved := st.Chart.Categories["Data"]
	if !moved.ManualPosition {
		t.Errorf("Data not marked manually positioned: %+v", moved)
	}

	s.json(http.MethodPost, base+"/categories/Data/nudge", map[string]any{"target": "se", "dx": 40, "dy": 20}, http.StatusOK, &st)
	if got := st.Chart.Categories["Data"]; got.Width != moved.Width+40 || got.Height != moved.Height+20 {
		t.Errorf("nudge size = %gx%g, want %gx%g", got.Width, got.Height, moved.Width+40, moved.Height+20)
	}

	title := "Cloud  Native"
	s.json(http.MethodPatch, base+"/chart", map[string]any{"title": title, "orientation": "portrait"}, http.StatusOK, &st)
	if st.Chart.Title != title || st.Chart.Orientation != "portrait" {
		t.Errorf("chart = %+v", st.Chart)
	}

	s.json(http.MethodPatch, base+"/categories/Infrastructure", map[string]string{"background_color": "#111111"}, http.StatusOK, &st)
	if got := st.Chart.Categories["Infrastructure"]; got.TextColor != "#ffffff" {
		t.Errorf("text color = %q, want contrast white", got.TextColor)
	}

	resp := s.do(http.MethodGet, base+"/export.svg", "", nil)
	s.check(resp, http.StatusOK, nil)
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "image/svg+xml") {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "cloud-native-ecosystem-map.svg") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	body, _ := stdio.ReadAll(resp.Body)
	if !bytes.Contains(body, []byte("<svg")) || !bytes.Contains(body, []byte(">Data<")) {
		t.Error("svg export missing content")
	}

	resp = s.do(http.MethodGet, base+"/export.json?no_logos=true", "", nil)
	s.check(resp, http.StatusOK, nil)
	var scene struct {
		Orientation string `json:"orientation"`
		Boxes       []any  `json:"boxes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&scene); err != nil {
		t.Fatal(err)
	}
	if scene.Orientation != "portrait" || len(scene.Boxes) != 2 {
		t.Errorf("json export = %+v", scene)
	}

	resp = s.do(http.MethodGet, base+"/snapshot", "", nil)
	s.check(resp, http.StatusOK, nil)
	snapshot, _ := stdio.ReadAll(resp.Body)

	s.json(http.MethodPost, base+"/layout", nil, http.StatusOK, &st)
	if st.Chart.Categories["Data"].ManualPosition {
		t.Error("relayout kept the manual position")
	}

	resp = s.do(http.MethodPut, base+"/snapshot", "application/json", bytes.NewReader(snapshot))
	s.check(resp, http.StatusOK, &st)
	if !st.Chart.Categories["Data"].ManualPosition {
		t.Error("snapshot restore lost the manual position")
	}

	resp = s.do(http.MethodDelete, base, "", nil)
	s.check(resp, http.StatusNoContent, nil)
	s.json(http.MethodGet, base, nil, http.StatusNotFound, nil)
}

func TestLogos(t *testing.T) {
	s := newTestServer(t)
	base := "/api/v1/sessions/" + s.create().ID

	var st State
	s.upload(base+"/upload", "file", map[string]string{"companies.csv": testCSV}, http.StatusOK, &st)
	s.json(http.MethodPost, base+"/mapping", st.Pending.Suggested, http.StatusOK, &st)

	var added struct {
		Added     []LogoResult `json:"added"`
		Unmatched []string     `json:"unmatched"`
	}
	s.upload(base+"/logos", "files", map[string]string{"acme.svg": `<svg xmlns="http://www.w3.org/2000/svg"/>`, "umbrella.svg": `<svg/>`}, http.StatusOK, &added)
	if len(added.Added) != 2 {
		t.Fatalf("added = %+v", added.Added)
	}
	if len(added.Unmatched) != 1 || added.Unmatched[0] != "umbrella.svg" {
		t.Errorf("unmatched = %v, want [umbrella.svg]", added.Unmatched)
	}

	var companyID string
	s.json(http.MethodGet, base, nil, http.StatusOK, &st)
	for _, cat := range st.Categories {
		for _, c := range cat.Companies {
			if c.Name == "Initech" {
				companyID = c.ID
			}
		}
	}
	s.json(http.MethodPost, base+"/logos/umbrella.svg/associate", map[string]string{"company_id": companyID}, http.StatusOK, &st)
	if len(st.Unmatched) != 0 {
		t.Errorf("unmatched after associate = %v", st.Unmatched)
	}

	s.json(http.MethodDelete, base+"/logos/acme.svg", nil, http.StatusOK, &st)
	if len(st.Logos) != 1 || st.Logos[0] != "umbrella.svg" {
		t.Errorf("logos = %v", st.Logos)
	}

	s.upload(base+"/logos", "files", map[string]string{"notes.txt": "hi"}, http.StatusBadRequest, nil)
}

func TestErrors(t *testing.T) {
	s := newTestServer(t)
	base := "/api/v1/sessions/" + s.create().ID

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   errors.Code
	}{
		{"unknown session", http.MethodGet, "/api/v1/sessions/00000000-0000-4000-8000-000000000000", nil, http.StatusNotFound, errors.ErrCodeSessionNotFound},
		{"malformed session id", http.MethodGet, "/api/v1/sessions/not-a-session", nil, http.StatusNotFound, errors.ErrCodeSessionNotFound},
		{"mapping without upload", http.MethodPost, base + "/mapping", map[string]string{"company_name": "a", "category": "b"}, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"unknown category", http.MethodPost, base + "/categories/Missing/move", map[string]float64{"x": 1, "y": 1}, http.StatusNotFound, errors.ErrCodeCategoryNotFound},
		{"bad target", http.MethodPost, base + "/categories/Missing/nudge", map[string]any{"target": "nw"}, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"unknown field", http.MethodPatch, base + "/chart", map[string]string{"colour": "red"}, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"bad orientation", http.MethodPatch, base + "/chart", map[string]string{"orientation": "diagonal"}, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"unknown format", http.MethodGet, base + "/export.gif", nil, http.StatusBadRequest, errors.ErrCodeUnsupported},
		{"empty export", http.MethodGet, base + "/export.png", nil, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"bad scale", http.MethodGet, base + "/export.png?scale=abc", nil, http.StatusBadRequest, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body errorBody
			s.t = t
			s.json(tt.method, tt.path, tt.body, tt.status, &body)
			if body.Error.Code != tt.code {
				t.Errorf("code = %s, want %s (%s)", body.Error.Code, tt.code, body.Error.Message)
			}
		})
	}
}

func TestUploadIncompleteMapping(t *testing.T) {
	s := newTestServer(t)
	base := "/api/v1/sessions/" + s.create().ID

	var st State
	s.upload(base+"/upload", "file", map[string]string{"data.json": `[{"who":"Acme","what":"Infra"}]`}, http.StatusOK, &st)
	if st.Pending == nil || st.Pending.Suggested.Complete() {
		t.Fatalf("pending = %+v, want incomplete suggestion", st.Pending)
	}
	var body errorBody
	s.json(http.MethodPost, base+"/mapping", st.Pending.Suggested, http.StatusUnprocessableEntity, &body)
	if body.Error.Code != errors.ErrCodeMappingIncomplete {
		t.Errorf("code = %s", body.Error.Code)
	}

	s.json(http.MethodPost, base+"/mapping", map[string]string{"company_name": "who", "category": "what"}, http.StatusOK, &st)
	if st.Companies != 1 {
		t.Errorf("companies = %d, want 1", st.Companies)
	}

	s.upload(base+"/upload", "file", map[string]string{"data.xlsx": "x"}, http.StatusBadRequest, nil)
}

func TestReadUploadRemovesTempFiles(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("TMPDIR", tmp)

	logger := log.New(stdio.Discard)
	srv := New(Config{UploadMemory: 1}, NewManager(session.NewMemoryStore(), nil, 0, logger), nil, logger)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "companies.csv")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte(testCSV))
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	files, order, err := srv.readUpload(httptest.NewRecorder(), req, "file")
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(order, []string{"companies.csv"}) || string(files["companies.csv"]) != testCSV {
		t.Errorf("got %v %q, want companies.csv with the uploaded content", order, files["companies.csv"])
	}
	entries, err := os.ReadDir(tmp)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("%d temp files left after upload", len(entries))
	}
}

func TestSessionRestoredFromBackend(t *testing.T) {
	logger := log.New(stdio.Discard)
	backend := session.NewMemoryStore()
	ctx := context.Background()

	first := NewManager(backend, nil, 0, logger)
	sess, err := first.Create(ctx)
	if err != nil {
		t.Fatal(err)
	}
	title := "Restored"
	_, err = first.Update(ctx, sess.ID, func(st *store.Store, _ *interact.Controller) error {
		return st.UpdateChart(store.ChartUpdate{Title: &title})
	})
	if err != nil {
		t.Fatal(err)
	}

	// A second manager over the same backend (another replica or a
	// restart) sees the saved state.
	second := NewManager(backend, nil, 0, logger)
	err = second.View(ctx, sess.ID, func(got *session.Session, st *store.Store) error {
		if got.ID != sess.ID {
			t.Errorf("ID = %s, want %s", got.ID, sess.ID)
		}
		if st.Chart().Title != title {
			t.Errorf("title = %q, want %q", st.Chart().Title, title)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if second.Len() != 1 {
		t.Errorf("Len = %d, want 1", second.Len())
	}

	if err := second.Delete(ctx, sess.ID); err != nil {
		t.Fatal(err)
	}
	err = second.View(ctx, sess.ID, func(*session.Session, *store.Store) error { return nil })
	if !errors.Is(err, errors.ErrCodeSessionNotFound) {
		t.Errorf("View after Delete = %v, want SESSION_NOT_FOUND", err)
	}
	if backend.Len() != 0 {
		t.Errorf("backend still holds %d sessions", backend.Len())
	}
}

func TestSweep(t *testing.T) {
	logger := log.New(stdio.Discard)
	mgr := NewManager(session.NewMemoryStore(), nil, time.Hour, logger)
	ctx := context.Background()
	sess, err := mgr.Create(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n, err := mgr.Sweep(ctx); err != nil || n != 0 {
		t.Errorf("Sweep = %d, %v, want nothing evicted", n, err)
	}

	mgr.mu.Lock()
	mgr.live[sess.ID].sess.ExpiresAt = time.Now().Add(-time.Minute)
	mgr.mu.Unlock()
	if n, err := mgr.Sweep(ctx); err != nil || n != 1 {
		t.Errorf("Sweep = %d, %v, want 1 evicted", n, err)
	}
	if mgr.Len() != 0 {
		t.Errorf("Len = %d after sweep", mgr.Len())
	}
}

type sessionEvents struct {
	observability.Noop
	mu     sync.Mutex
	events []string
}

func (e *sessionEvents) add(ev string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, ev)
}

func (e *sessionEvents) OnSessionCreated(context.Context, string) {
	e.add("created")
}

func (e *sessionEvents) OnSessionRestored(context.Context, string) {
	e.add("restored")
}

func (e *sessionEvents) OnSessionEvicted(_ context.Context, _, reason string) {
	e.add("evicted:" + reason)
}

func TestSessionHooks(t *testing.T) {
	events := &sessionEvents{}
	defer observability.Install(observability.Hooks{Session: events})()

	logger := log.New(stdio.Discard)
	backend := session.NewMemoryStore()
	ctx := context.Background()

	first := NewManager(backend, nil, time.Hour, logger)
	sess, err := first.Create(ctx)
	if err != nil {
		t.Fatal(err)
	}
	second := NewManager(backend, nil, time.Hour, logger)
	if err := second.View(ctx, sess.ID, func(*session.Session, *store.Store) error { return nil }); err != nil {
		t.Fatal(err)
	}
	second.mu.Lock()
	second.live[sess.ID].sess.ExpiresAt = time.Now().Add(-time.Minute)
	second.mu.Unlock()
	if _, err := second.Sweep(ctx); err != nil {
		t.Fatal(err)
	}
	if err := first.Delete(ctx, sess.ID); err != nil {
		t.Fatal(err)
	}

	want := []string{"created", "restored", "evicted:expired", "evicted:deleted"}
	if !slices.Equal(events.events, want) {
		t.Errorf("got events %v, want %v", events.events, want)
	}
}

func TestCORS(t *testing.T) {
	s := newTestServer(t)
	req, _ := http.NewRequest(http.MethodOptions, s.ts.URL+"/api/v1/sessions", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("preflight status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Allow-Origin = %q", got)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	var body struct {
		Status string `json:"status"`
	}
	s.json(http.MethodGet, "/api/v1/health", nil, http.StatusOK, &body)
	if body.Status != "ok" {
		t.Errorf("status = %q", body.Status)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errors.New(errors.ErrCodeInvalidFormat, "x"), http.StatusBadRequest},
		{errors.New(errors.ErrCodeNoValidCompanies, "x"), http.StatusUnprocessableEntity},
		{errors.New(errors.ErrCodeCategoryNotFound, "x"), http.StatusNotFound},
		{errors.New(errors.ErrCodeExportFailed, "x"), http.StatusInternalServerError},
		{interact.ErrBusy, http.StatusConflict},
		{stdio.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := StatusFor(tt.err); got != tt.want {
			t.Errorf("StatusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

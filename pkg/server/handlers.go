package server

import (
	"bytes"
	stdio "io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/ecomap/pkg/buildinfo"
	"github.com/matzehuels/ecomap/pkg/ecosystem"
	"github.com/matzehuels/ecomap/pkg/errors"
	"github.com/matzehuels/ecomap/pkg/interact"
	"github.com/matzehuels/ecomap/pkg/io"
	"github.com/matzehuels/ecomap/pkg/pipeline"
	"github.com/matzehuels/ecomap/pkg/render"
	"github.com/matzehuels/ecomap/pkg/render/sink"
	"github.com/matzehuels/ecomap/pkg/session"
	"github.com/matzehuels/ecomap/pkg/store"
)

// PreviewRows is the number of rows shown in the mapping step.
const PreviewRows = 5

// State is the session view returned by most endpoints.
type State struct {
	ID           string                       `json:"id"`
	ExpiresAt    time.Time                    `json:"expires_at"`
	Empty        bool                         `json:"empty"`
	Chart        ecosystem.ChartCustomization `json:"chart"`
	Categories   []ecosystem.Category         `json:"categories"`
	Companies    int                          `json:"companies"`
	Logos        []string                     `json:"logos"`
	Unmatched    []string                     `json:"unmatched,omitempty"`
	Clamped      []string                     `json:"clamped,omitempty"`
	UploadErrors []string                     `json:"upload_errors,omitempty"`
	Pending      *Pending                     `json:"pending,omitempty"`
}

// Pending describes an uploaded table waiting for its column mapping.
type Pending struct {
	Format    io.Format  `json:"format"`
	Columns   []string   `json:"columns"`
	Rows      int        `json:"rows"`
	Preview   [][]string `json:"preview"`
	Suggested io.Mapping `json:"suggested"`
}

func newPending(t *io.Table) *Pending {
	if t == nil {
		return nil
	}
	return &Pending{
		Format:    t.Format,
		Columns:   t.Columns,
		Rows:      t.Len(),
		Preview:   io.Preview(t, PreviewRows),
		Suggested: io.SuggestMapping(t.Columns),
	}
}

// newState captures st. sess may be nil when the caller fills in the
// session fields later.
func newState(sess *session.Session, st *store.Store) State {
	state := State{
		Empty:        st.Empty(),
		Chart:        st.Chart(),
		Categories:   st.Categories(),
		Companies:    len(st.Companies()),
		Logos:        []string{},
		Unmatched:    st.Unmatched(),
		Clamped:      st.Clamped(),
		UploadErrors: st.UploadErrors(),
		Pending:      newPending(st.Pending()),
	}
	for _, l := range st.Logos().Export().Logos {
		state.Logos = append(state.Logos, l.Filename)
	}
	if sess != nil {
		state.ID, state.ExpiresAt = sess.ID, sess.ExpiresAt
	}
	return state
}

func param(r *http.Request, name string) string {
	v := chi.URLParam(r, name)
	if u, err := url.PathUnescape(v); err == nil {
		return u
	}
	return v
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"version":  buildinfo.Current(),
		"sessions": s.sessions.Len(),
	})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Create(r.Context())
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	s.respondState(w, r, http.StatusCreated, sess.ID)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	s.respondState(w, r, http.StatusOK, chi.URLParam(r, "id"))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// respondState writes the current state of a session.
func (s *Server) respondState(w http.ResponseWriter, r *http.Request, status int, id string) {
	var state State
	err := s.sessions.View(r.Context(), id, func(sess *session.Session, st *store.Store) error {
		state = newState(sess, st)
		return nil
	})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, status, state)
}

// update applies fn to the session and responds with the new state.
func (s *Server) update(w http.ResponseWriter, r *http.Request, fn func(*store.Store, *interact.Controller) error) {
	var state State
	sess, err := s.sessions.Update(r.Context(), chi.URLParam(r, "id"), func(st *store.Store, c *interact.Controller) error {
		if err := fn(st, c); err != nil {
			return err
		}
		state = newState(nil, st)
		return nil
	})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	state.ID, state.ExpiresAt = sess.ID, sess.ExpiresAt
	writeJSON(w, http.StatusOK, state)
}

// readUpload returns the named multipart files. Upload size is capped by
// MaxUploadSize; parts beyond UploadMemory are buffered in temp files that
// are removed before it returns.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request, field string) (map[string][]byte, []string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadSize)
	if err := r.ParseMultipartForm(min(s.cfg.UploadMemory, s.cfg.MaxUploadSize)); err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse upload")
	}
	defer r.MultipartForm.RemoveAll()
	headers := r.MultipartForm.File[field]
	if len(headers) == 0 {
		return nil, nil, errors.New(errors.ErrCodeInvalidInput, "missing form field %q", field)
	}
	files := make(map[string][]byte, len(headers))
	var order []string
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			return nil, nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "open %s", h.Filename)
		}
		data, err := stdio.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", h.Filename)
		}
		if _, dup := files[h.Filename]; !dup {
			order = append(order, h.Filename)
		}
		files[h.Filename] = data
	}
	return files, order, nil
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	files, order, err := s.readUpload(w, r, "file")
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	name := order[0]
	t, err := io.Read(name, bytes.NewReader(files[name]))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	s.update(w, r, func(st *store.Store, _ *interact.Controller) error {
		st.LoadTable(t)
		return nil
	})
}

func (s *Server) handleMapping(w http.ResponseWriter, r *http.Request) {
	var m io.Mapping
	if err := decodeJSON(r, &m); err != nil {
		writeError(w, s.logger, err)
		return
	}
	s.update(w, r, func(st *store.Store, _ *interact.Controller) error {
		_, err := st.ApplyMapping(m)
		return err
	})
}

// LogoResult is one uploaded logo.
type LogoResult struct {
	Filename string `json:"filename"`
	Ref      string `json:"ref"`
}

func (s *Server) handleAddLogos(w http.ResponseWriter, r *http.Request) {
	files, order, err := s.readUpload(w, r, "files")
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	var added []LogoResult
	var unmatched []string
	_, err = s.sessions.Update(r.Context(), chi.URLParam(r, "id"), func(st *store.Store, _ *interact.Controller) error {
		for _, name := range order {
			if !pipeline.IsLogoFile(name) {
				return errors.New(errors.ErrCodeInvalidInput, "not an image: %s", name)
			}
			ref, err := st.AddLogo(name, files[name])
			if err != nil {
				return err
			}
			added = append(added, LogoResult{Filename: name, Ref: ref})
		}
		unmatched = st.Unmatched()
		return nil
	})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"added": added, "unmatched": unmatched})
}

func (s *Server) handleRemoveLogo(w http.ResponseWriter, r *http.Request) {
	name := param(r, "filename")
	s.update(w, r, func(st *store.Store, _ *interact.Controller) error {
		return st.RemoveLogo(name)
	})
}

func (s *Server) handleAssociateLogo(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CompanyID string `json:"company_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}
	name := param(r, "filename")
	s.update(w, r, func(st *store.Store, _ *interact.Controller) error {
		return st.AssociateLogo(name, req.CompanyID)
	})
}

func (s *Server) handleUpdateChart(w http.ResponseWriter, r *http.Request) {
	var u store.ChartUpdate
	if err := decodeJSON(r, &u); err != nil {
		writeError(w, s.logger, err)
		return
	}
	s.update(w, r, func(st *store.Store, _ *interact.Controller) error {
		return st.UpdateChart(u)
	})
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var u store.CategoryUpdate
	if err := decodeJSON(r, &u); err != nil {
		writeError(w, s.logger, err)
		return
	}
	name := param(r, "name")
	s.update(w, r, func(st *store.Store, _ *interact.Controller) error {
		_, err := st.UpdateCategory(name, u)
		return err
	})
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var p ecosystem.Position
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, s.logger, err)
		return
	}
	name := param(r, "name")
	s.update(w, r, func(st *store.Store, _ *interact.Controller) error {
		return st.Move(name, p)
	})
}

func (s *Server) handleResize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}
	name := param(r, "name")
	s.update(w, r, func(st *store.Store, _ *interact.Controller) error {
		return st.Resize(name, req.Width, req.Height)
	})
}

// handleNudge replays one complete pointer gesture: down on target, move
// by (dx, dy), up.
func (s *Server) handleNudge(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Target string  `json:"target"`
		DX     float64 `json:"dx"`
		DY     float64 `json:"dy"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}
	target, err := interact.ParseTarget(req.Target)
	if err != nil {
		writeError(w, s.logger, errors.Wrap(errors.ErrCodeInvalidInput, err, "target"))
		return
	}
	name := param(r, "name")
	s.update(w, r, func(_ *store.Store, c *interact.Controller) error {
		return c.Nudge(name, target, req.DX, req.DY)
	})
}

func (s *Server) handleSetColumns(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Columns int `json:"columns"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}
	name := param(r, "name")
	s.update(w, r, func(st *store.Store, _ *interact.Controller) error {
		_, err := st.SetColumns(name, req.Columns)
		return err
	})
}

func (s *Server) handleCycleColumns(w http.ResponseWriter, r *http.Request) {
	name := param(r, "name")
	s.update(w, r, func(_ *store.Store, c *interact.Controller) error {
		_, err := c.CycleColumns(name)
		return err
	})
}

func (s *Server) handleRelayout(w http.ResponseWriter, r *http.Request) {
	s.update(w, r, func(st *store.Store, _ *interact.Controller) error {
		st.Relayout()
		return nil
	})
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	var title string
	err := s.sessions.View(r.Context(), chi.URLParam(r, "id"), func(_ *session.Session, st *store.Store) error {
		title = st.Chart().Title
		return io.WriteSnapshot(st.Snapshot(), &buf)
	})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", attachment(render.ExportFilename(title, "ecomap.json")))
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handlePutSnapshot(w http.ResponseWriter, r *http.Request) {
	doc, err := io.ReadSnapshot(http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadSize))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	s.update(w, r, func(st *store.Store, _ *interact.Controller) error {
		st.Restore(doc)
		return nil
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := sink.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	opts, err := exportOptions(r.URL.Query())
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	opts.Formats = []string{string(format)}

	var (
		data  []byte
		title string
	)
	err = s.sessions.View(r.Context(), chi.URLParam(r, "id"), func(_ *session.Session, st *store.Store) error {
		if st.Empty() {
			return errors.New(errors.ErrCodeInvalidInput, "nothing to export: the map is empty")
		}
		res := &pipeline.Result{Store: st}
		if err := s.runner.Render(r.Context(), res, opts); err != nil {
			return err
		}
		data, title = res.Artifacts[string(format)], st.Chart().Title
		return nil
	})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", attachment(render.ExportFilename(title, format.Ext())))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

// exportOptions reads scale, no_logos, collapse and rsvg query parameters.
func exportOptions(q url.Values) (pipeline.Options, error) {
	var opts pipeline.Options
	if v := q.Get("scale"); v != "" {
		scale, err := strconv.ParseFloat(v, 64)
		if err != nil || scale <= 0 || scale > 8 {
			return opts, errors.New(errors.ErrCodeInvalidInput, "scale must be a number in (0, 8], got %q", v)
		}
		opts.Scale = scale
	}
	for name, dst := range map[string]*bool{
		"no_logos": &opts.NoLogos,
		"collapse": &opts.Collapse,
		"rsvg":     &opts.RSVG,
	} {
		if v := q.Get(name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return opts, errors.New(errors.ErrCodeInvalidInput, "%s must be a boolean, got %q", name, v)
			}
			*dst = b
		}
	}
	return opts, nil
}

func attachment(filename string) string {
	return `attachment; filename="` + filename + `"`
}

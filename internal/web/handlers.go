package web

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hpungsan/tabshelf/internal/collection"
	"github.com/hpungsan/tabshelf/internal/config"
	"github.com/hpungsan/tabshelf/internal/drag"
	"github.com/hpungsan/tabshelf/internal/editor"
	"github.com/hpungsan/tabshelf/internal/errors"
	"github.com/hpungsan/tabshelf/internal/ops"
	"github.com/hpungsan/tabshelf/internal/surface"
	"github.com/hpungsan/tabshelf/internal/view"
)

// maxBodySize bounds JSON request bodies.
const maxBodySize = 1 << 20

// Handlers contains HTTP route handlers for the page and the API.
type Handlers struct {
	sess     *surface.Session
	cfg      *config.Config
	renderer *Renderer
	logger   *log.Logger
	now      func() time.Time
}

// --- HTML ---

func (h *Handlers) indexData(r *http.Request, withSidebar bool) IndexPageData {
	data := IndexPageData{
		PageData: PageData{Title: "Collections", Version: h.renderer.version, Nav: "collections"},
		Now:      h.now(),
	}
	if withSidebar {
		open, err := h.sess.OpenTabs(r.Context(), r.URL.Query().Get("q"))
		if err != nil {
			data.SidebarError = sidebarError(err)
		}
		data.OpenTabs = open
	}
	data.Frame = h.sess.Frame()
	return data
}

func sidebarError(err error) string {
	if errors.Is(err, errors.ErrCollaboratorUnavailable) {
		return "Browser not connected. Open tabs are unavailable."
	}
	return "Could not list open tabs."
}

// HandleIndex handles GET /: the full page.
func (h *Handlers) HandleIndex(w http.ResponseWriter, r *http.Request) {
	h.sess.SetFilter(h.sess.Term())
	data := h.indexData(r, false)
	open, err := h.sess.OpenTabs(r.Context(), "")
	if err != nil {
		data.SidebarError = sidebarError(err)
	}
	data.OpenTabs = open
	h.renderer.renderPage(w, "index", data)
}

// HandleGrid handles GET /collections?q=: the card grid fragment. A
// changed filter is a full re-render; the same filter keeps expansions.
func (h *Handlers) HandleGrid(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q != h.sess.Term() || !h.sess.View.Loaded() {
		h.sess.SetFilter(q)
	}
	h.renderer.renderBlock(w, http.StatusOK, "index", "grid", h.indexData(r, false))
}

// HandleOpenTabs handles GET /open-tabs?q=: the sidebar fragment.
func (h *Handlers) HandleOpenTabs(w http.ResponseWriter, r *http.Request) {
	h.renderer.renderBlock(w, http.StatusOK, "index", "sidebar", h.indexData(r, true))
}

// HandleStatus handles GET /status: the status line fragment.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	h.renderer.renderBlock(w, http.StatusOK, "index", "status", h.indexData(r, false))
}

// HandleExport handles GET /export: the markdown preview of every collection.
func (h *Handlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	list := h.sess.Store().Snapshot()
	md := collection.Markdown(list, h.now())
	h.renderer.renderPage(w, "export", ExportPageData{
		PageData:     PageData{Title: "Export", Version: h.renderer.version, Nav: "export"},
		RenderedHTML: renderMarkdown(md),
		Count:        len(list),
	})
}

// --- JSON API ---

// CardJSON is one card of the view state.
type CardJSON struct {
	Collection   collection.Collection `json:"collection"`
	Expanded     bool                  `json:"expanded"`
	VisibleTabs  []collection.TabEntry `json:"visible_tabs"`
	HiddenCount  int                   `json:"hidden_count"`
	ToggleLabel  string                `json:"toggle_label,omitempty"`
	OpenAllLabel string                `json:"open_all_label"`
	SavedAgo     string                `json:"saved_ago"`
	Markers      []drag.Marker         `json:"markers"`
}

// ViewJSON is the synchronized view returned by GET /api/view.
type ViewJSON struct {
	Status      view.Status    `json:"status"`
	Placeholder string         `json:"placeholder,omitempty"`
	Term        string         `json:"term"`
	Total       int            `json:"total"`
	Cards       []CardJSON     `json:"cards"`
	Message     *view.Message  `json:"message,omitempty"`
	Drag        string         `json:"drag"`
	Editing     []editor.Field `json:"editing"`
}

func (h *Handlers) viewJSON(f surface.Frame) ViewJSON {
	now := h.now()
	out := ViewJSON{
		Status:      f.State.Status,
		Placeholder: f.State.Status.Text(),
		Term:        f.State.Term,
		Total:       f.State.Total,
		Cards:       make([]CardJSON, 0, len(f.State.Cards)),
		Message:     f.Status,
		Drag:        f.Drag.Kind.String(),
		Editing:     f.Editing,
	}
	for _, cv := range f.State.Cards {
		markers := f.Markers[cv.Collection.ID]
		if markers == nil {
			markers = []drag.Marker{}
		}
		out.Cards = append(out.Cards, CardJSON{
			Collection:   cv.Collection,
			Expanded:     cv.Expanded,
			VisibleTabs:  cv.VisibleTabs(),
			HiddenCount:  cv.HiddenCount(),
			ToggleLabel:  cv.ToggleLabel(),
			OpenAllLabel: cv.OpenAllLabel(),
			SavedAgo:     cv.SavedAgo(now),
			Markers:      markers,
		})
	}
	return out
}

// APIView handles GET /api/view?q=.
func (h *Handlers) APIView(w http.ResponseWriter, r *http.Request) {
	if q, ok := r.URL.Query()["q"]; ok && q[0] != h.sess.Term() {
		h.sess.SetFilter(q[0])
	}
	renderJSON(w, http.StatusOK, h.viewJSON(h.sess.Frame()))
}

// APIOpenTabs handles GET /api/open-tabs?q=.
func (h *Handlers) APIOpenTabs(w http.ResponseWriter, r *http.Request) {
	open, err := h.sess.OpenTabs(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, open)
}

// APIExport handles GET /api/export?format=markdown|json as a download.
func (h *Handlers) APIExport(w http.ResponseWriter, r *http.Request) {
	list := h.sess.Store().Snapshot()
	now := h.now()
	stamp := now.UTC().Format("2006-01-02T150405")

	switch ops.ExportFormat(r.URL.Query().Get("format")) {
	case ops.ExportMarkdown:
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="collections-`+stamp+`.md"`)
		_, _ = io.WriteString(w, collection.Markdown(list, now))
	case ops.ExportJSON, "":
		body, err := collection.EncodeDocument(list)
		if err != nil {
			h.renderer.renderError(w, r, errors.NewInternal(err))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", `attachment; filename="collections-`+stamp+`.json"`)
		_, _ = w.Write(body)
	default:
		h.renderer.renderError(w, r, errors.NewInvalidRequest("format must be \"json\" or \"markdown\""))
	}
}

// APIListCollections handles GET /api/collections?q=&limit=&offset=.
func (h *Handlers) APIListCollections(w http.ResponseWriter, r *http.Request) {
	out, err := h.sess.Store().Search(ops.SearchInput{
		Query:  r.URL.Query().Get("q"),
		Limit:  parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset: parseIntParam(r, "offset", 0),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

type nameBody struct {
	Name string `json:"name"`
}

type saveOpenBody struct {
	Name      string `json:"name"`
	CloseTabs bool   `json:"close_tabs"`
}

// APICreateCollection handles POST /api/collections. A blank name is the
// prompt being cancelled.
func (h *Handlers) APICreateCollection(w http.ResponseWriter, r *http.Request) {
	var body nameBody
	if !h.decode(w, r, &body) {
		return
	}
	out, err := h.sess.CreateEmpty(r.Context(), surface.Answer{Value: body.Name, OK: body.Name != ""})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if out == nil {
		renderJSON(w, http.StatusOK, map[string]any{"cancelled": true})
		return
	}
	renderJSON(w, http.StatusCreated, out)
}

// APISaveOpenTabs handles POST /api/collections/save-open.
func (h *Handlers) APISaveOpenTabs(w http.ResponseWriter, r *http.Request) {
	var body saveOpenBody
	if !h.decode(w, r, &body) {
		return
	}
	out, err := h.sess.SaveOpenTabs(r.Context(), surface.Answer{Value: body.Name, OK: body.Name != ""}, body.CloseTabs)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if out == nil {
		renderJSON(w, http.StatusOK, map[string]any{"cancelled": true})
		return
	}
	renderJSON(w, http.StatusCreated, out)
}

// APIRenameCollection handles PATCH /api/collections/{id}.
func (h *Handlers) APIRenameCollection(w http.ResponseWriter, r *http.Request) {
	var body nameBody
	if !h.decode(w, r, &body) {
		return
	}
	out, err := h.sess.Store().Rename(r.Context(), ops.RenameInput{ID: chi.URLParam(r, "id"), Name: body.Name})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.sess.View.RefreshCard(out.Collection)
	renderJSON(w, http.StatusOK, out)
}

// APIDeleteCollection handles DELETE /api/collections/{id}. The page has
// already asked for confirmation.
func (h *Handlers) APIDeleteCollection(w http.ResponseWriter, r *http.Request) {
	out, err := h.sess.DeleteCollection(r.Context(), chi.URLParam(r, "id"), surface.Answer{OK: true})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, map[string]any{
		"deleted": out.Deleted,
		"id":      out.ID,
	})
}

// APIOpenCollection handles POST /api/collections/{id}/open.
func (h *Handlers) APIOpenCollection(w http.ResponseWriter, r *http.Request) {
	out, err := h.sess.OpenCollection(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// APIToggle handles POST /api/collections/{id}/toggle.
func (h *Handlers) APIToggle(w http.ResponseWriter, r *http.Request) {
	cv, err := h.sess.Toggle(chi.URLParam(r, "id"))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, map[string]any{
		"id":           cv.Collection.ID,
		"expanded":     cv.Expanded,
		"toggle_label": cv.ToggleLabel(),
		"visible_tabs": cv.VisibleTabs(),
	})
}

type tabBody struct {
	URL        string  `json:"url"`
	Title      string  `json:"title"`
	FavIconURL *string `json:"favIconUrl"`
}

// APIAddTab handles POST /api/collections/{id}/tabs.
func (h *Handlers) APIAddTab(w http.ResponseWriter, r *http.Request) {
	var body tabBody
	if !h.decode(w, r, &body) {
		return
	}
	out, err := h.sess.Store().AddTab(r.Context(), ops.AddTabInput{
		CollectionID: chi.URLParam(r, "id"),
		Tab:          collection.TabEntry{URL: body.URL, Title: body.Title, FavIconURL: body.FavIconURL},
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.sess.View.RefreshCard(out.Collection)
	renderJSON(w, http.StatusCreated, out)
}

// APIDeleteTab handles DELETE /api/collections/{id}/tabs?url=.
func (h *Handlers) APIDeleteTab(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("url is required"))
		return
	}
	out, err := h.sess.DeleteTab(r.Context(), chi.URLParam(r, "id"), url)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// APIRenameTab handles PATCH /api/collections/{id}/tabs.
func (h *Handlers) APIRenameTab(w http.ResponseWriter, r *http.Request) {
	var body tabBody
	if !h.decode(w, r, &body) {
		return
	}
	out, err := h.sess.Store().RenameTab(r.Context(), ops.RenameTabInput{
		CollectionID: chi.URLParam(r, "id"),
		URL:          body.URL,
		Title:        body.Title,
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.sess.View.RefreshCard(out.Collection)
	renderJSON(w, http.StatusOK, out)
}

type dragStartBody struct {
	Kind         string               `json:"kind"` // "reorder" or "tab"
	CollectionID string               `json:"collection_id"`
	Origin       drag.Origin          `json:"origin"`
	Payload      *collection.TabEntry `json:"payload"`
	// Transfer is raw drag data keyed by MIME type, for clients that only
	// see the drop side of a gesture.
	Transfer map[string]string `json:"transfer"`
}

type targetBody struct {
	TargetID string `json:"target_id"`
}

// APIDragStart handles POST /api/drag/start.
func (h *Handlers) APIDragStart(w http.ResponseWriter, r *http.Request) {
	var body dragStartBody
	if !h.decode(w, r, &body) {
		return
	}

	origin := body.Origin
	if origin == "" {
		origin = drag.OriginCard
	}

	var started bool
	switch {
	case len(body.Transfer) > 0:
		s, err := drag.SessionFromTransfer(body.Transfer)
		if err != nil {
			h.renderer.renderError(w, r, err)
			return
		}
		switch s.Kind {
		case drag.KindReordering:
			started = h.sess.Drag.StartCollection(s.CollectionID, origin)
		case drag.KindInsertingTab:
			started = h.sess.Drag.StartTab(s.Payload)
		}
	case body.Kind == "tab":
		if body.Payload == nil {
			h.renderer.renderError(w, r, errors.NewInvalidRequest("payload is required for a tab drag"))
			return
		}
		started = h.sess.Drag.StartTab(*body.Payload)
	case body.Kind == "reorder":
		started = h.sess.Drag.StartCollection(body.CollectionID, origin)
	default:
		h.renderer.renderError(w, r, errors.NewInvalidRequest(`kind must be "reorder" or "tab"`))
		return
	}

	renderJSON(w, http.StatusOK, map[string]any{
		"started": started,
		"session": h.sess.Drag.Current().Kind.String(),
	})
}

// APIDragOver handles POST /api/drag/over.
func (h *Handlers) APIDragOver(w http.ResponseWriter, r *http.Request) {
	var body targetBody
	if !h.decodeTarget(w, r, &body) {
		return
	}
	a := h.sess.Drag.Over(body.TargetID)
	renderJSON(w, http.StatusOK, map[string]any{
		"affordance":  a,
		"drop_effect": a.DropEffect(),
	})
}

// APIDragLeave handles POST /api/drag/leave.
func (h *Handlers) APIDragLeave(w http.ResponseWriter, r *http.Request) {
	var body targetBody
	if !h.decodeTarget(w, r, &body) {
		return
	}
	h.sess.Drag.Leave(body.TargetID)
	w.WriteHeader(http.StatusNoContent)
}

// APIDrop handles POST /api/drop. The session stays set until drag/end.
func (h *Handlers) APIDrop(w http.ResponseWriter, r *http.Request) {
	var body targetBody
	if !h.decodeTarget(w, r, &body) {
		return
	}
	res := h.sess.Drop(r.Context(), body.TargetID)
	if res.Err != nil {
		h.renderer.renderError(w, r, res.Err)
		return
	}
	renderJSON(w, http.StatusOK, res)
}

// APIDragEnd handles POST /api/drag/end.
func (h *Handlers) APIDragEnd(w http.ResponseWriter, r *http.Request) {
	h.sess.Drag.End()
	w.WriteHeader(http.StatusNoContent)
}

type editBody struct {
	editor.Field
	Token editor.Token `json:"token"`
	Text  string       `json:"text"`
	Value string       `json:"value"`
}

// APIEditBegin handles POST /api/edit/begin.
func (h *Handlers) APIEditBegin(w http.ResponseWriter, r *http.Request) {
	var body editBody
	if !h.decode(w, r, &body) {
		return
	}
	tok, err := h.sess.Editors.Begin(body.Field, body.Text)
	if err != nil {
		switch {
		case stderrors.Is(err, editor.ErrAlreadyEditing):
			err = errors.NewInvalidRequest(err.Error())
		case stderrors.Is(err, editor.ErrInvalidField):
			err = errors.NewInvalidRequest(err.Error())
		}
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, map[string]any{"editing": body.Field, "token": tok})
}

// APIEditCommit handles POST /api/edit/commit. A failed save is reported
// in the result and the status line, with the pre-edit text to restore.
func (h *Handlers) APIEditCommit(w http.ResponseWriter, r *http.Request) {
	var body editBody
	if !h.decode(w, r, &body) {
		return
	}
	res := h.sess.CommitEdit(r.Context(), body.Field, body.Token, body.Value)
	out := map[string]any{"outcome": res.Outcome, "text": res.Text}
	if res.Err != nil {
		out["error"] = res.Err.Error()
	}
	renderJSON(w, http.StatusOK, out)
}

// APIEditEscape handles POST /api/edit/escape.
func (h *Handlers) APIEditEscape(w http.ResponseWriter, r *http.Request) {
	var body editBody
	if !h.decode(w, r, &body) {
		return
	}
	renderJSON(w, http.StatusOK, h.sess.Editors.Escape(body.Field, body.Token))
}

// decode reads a JSON body into v, writing a 400 on failure. An empty body
// leaves v at its zero value.
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err := dec.Decode(v); err != nil && !stderrors.Is(err, io.EOF) {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid JSON body: "+err.Error()))
		return false
	}
	return true
}

func (h *Handlers) decodeTarget(w http.ResponseWriter, r *http.Request, body *targetBody) bool {
	if !h.decode(w, r, body) {
		return false
	}
	if body.TargetID == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("target_id is required"))
		return false
	}
	return true
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

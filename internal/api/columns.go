package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mohammed-shakir/h3-columnar/internal/h3index"
	"github.com/mohammed-shakir/h3-columnar/internal/store/columnstore"
)

type columnBody struct {
	Name    string    `json:"name,omitempty"`
	Kind    string    `json:"kind,omitempty"`
	Indexes []*string `json:"indexes"`
	Nulls   int       `json:"nulls"`
}

// putColumn stores a column. Parsing is strict unless ?tolerant=true.
func (h *Handler) putColumn(w http.ResponseWriter, r *http.Request) {
	ctx, done := begin(r, "store_put")
	if h.store == nil {
		h.fail(ctx, w, errNoStore)
		return
	}
	kind, err := parseKind(r.URL.Query().Get("kind"))
	if err != nil {
		h.fail(ctx, w, err)
		return
	}
	tolerant, _ := strconv.ParseBool(r.URL.Query().Get("tolerant"))
	var body columnBody
	if err := h.decode(w, r, &body); err != nil {
		h.fail(ctx, w, err)
		return
	}
	name := chi.URLParam(r, "name")

	var rows, nulls int
	switch kind {
	case h3index.KindDirectedEdge:
		rows, nulls, err = saveParsed[h3index.DirectedEdge](ctx, h.store, name, body.Indexes, tolerant)
	case h3index.KindVertex:
		rows, nulls, err = saveParsed[h3index.Vertex](ctx, h.store, name, body.Indexes, tolerant)
	default:
		rows, nulls, err = saveParsed[h3index.Cell](ctx, h.store, name, body.Indexes, tolerant)
	}
	done(rows, nulls)
	if err != nil {
		h.fail(ctx, w, err)
		return
	}
	h.forgetIndexes(kind, name)
	writeJSON(w, http.StatusCreated, map[string]any{"name": name, "kind": kind.String(), "len": rows, "nulls": nulls})
}

func saveParsed[V h3index.Index](ctx context.Context, s *columnstore.Store, name string, in []*string, tolerant bool) (int, int, error) {
	col, err := parseIndexes[V](in, tolerant)
	if err != nil {
		return len(in), 0, err
	}
	return col.Len(), col.NullCount(), columnstore.SaveColumn(ctx, s, name, col)
}

func (h *Handler) getColumn(w http.ResponseWriter, r *http.Request) {
	ctx, done := begin(r, "store_get")
	if h.store == nil {
		h.fail(ctx, w, errNoStore)
		return
	}
	kind, err := parseKind(r.URL.Query().Get("kind"))
	if err != nil {
		h.fail(ctx, w, err)
		return
	}
	name := chi.URLParam(r, "name")

	var out columnBody
	switch kind {
	case h3index.KindDirectedEdge:
		out, err = loadRendered[h3index.DirectedEdge](ctx, h.store, name)
	case h3index.KindVertex:
		out, err = loadRendered[h3index.Vertex](ctx, h.store, name)
	default:
		out, err = loadRendered[h3index.Cell](ctx, h.store, name)
	}
	done(len(out.Indexes), out.Nulls)
	if err != nil {
		h.fail(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func loadRendered[V h3index.Index](ctx context.Context, s *columnstore.Store, name string) (columnBody, error) {
	col, err := columnstore.LoadColumn[V](ctx, s, name)
	if err != nil {
		return columnBody{}, err
	}
	return columnBody{
		Name:    name,
		Kind:    h3index.KindOf[V]().String(),
		Indexes: renderColumn(col),
		Nulls:   col.NullCount(),
	}, nil
}

func (h *Handler) deleteColumn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.store == nil {
		h.fail(ctx, w, errNoStore)
		return
	}
	kind, err := parseKind(r.URL.Query().Get("kind"))
	if err != nil {
		h.fail(ctx, w, err)
		return
	}
	name := chi.URLParam(r, "name")
	ok, err := h.store.Delete(ctx, kind, name)
	if err != nil {
		h.fail(ctx, w, err)
		return
	}
	h.forgetIndexes(kind, name)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// getList returns a stored cell list, such as one saved by grid/disk with
// store_as.
func (h *Handler) getList(w http.ResponseWriter, r *http.Request) {
	ctx, done := begin(r, "store_get_list")
	if h.store == nil {
		h.fail(ctx, w, errNoStore)
		return
	}
	l, err := columnstore.LoadList[h3index.Cell](ctx, h.store, chi.URLParam(r, "name"))
	if err != nil {
		done(0, 0)
		h.fail(ctx, w, err)
		return
	}
	done(l.Len(), l.Layout().NullCount())
	writeJSON(w, http.StatusOK, listResponse{Cells: renderList(l)})
}

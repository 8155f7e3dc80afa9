// Package api exposes the columnar operations over JSON.
//
// Index arrays travel as JSON arrays of strings in which null marks a null
// position. Compute endpoints parse their input tolerantly, so text that is
// not an index of the requested kind becomes null. Ragged results are arrays
// of arrays where a null element is JSON null and an empty one is [].
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mohammed-shakir/h3-columnar/internal/column"
	"github.com/mohammed-shakir/h3-columnar/internal/core/observability"
	"github.com/mohammed-shakir/h3-columnar/internal/geo"
	"github.com/mohammed-shakir/h3-columnar/internal/grid"
	"github.com/mohammed-shakir/h3-columnar/internal/h3index"
	mylog "github.com/mohammed-shakir/h3-columnar/internal/logger"
	"github.com/mohammed-shakir/h3-columnar/internal/store/codec"
	"github.com/mohammed-shakir/h3-columnar/internal/store/columnstore"
)

var (
	errBadRequest = errors.New("bad request")
	errNoStore    = errors.New("column store not configured")
)

// Ops lists the op label values the handlers report.
var Ops = []string{
	"grid_disk", "grid_ring", "grid_aggregate", "change_resolution",
	"parent", "children", "compact", "spatial_query",
	"store_put", "store_get", "store_get_list",
}

type Options struct {
	MaxBodyBytes int64
	// GeomCacheSize sizes the decoded geometry cache of each spatial index
	// built from a stored column. Zero disables it.
	GeomCacheSize int
	// IndexCacheSize bounds the spatial indexes kept for stored columns.
	// Zero means 16.
	IndexCacheSize int
	Workers        int
	// DefaultRes is the target resolution when a request omits one.
	DefaultRes int
}

type Handler struct {
	log     *slog.Logger
	engine  *grid.Engine
	store   *columnstore.Store
	opts    Options
	indexes *lru.Cache[indexKey, any]
}

// New wires the handlers. store may be nil, in which case the column
// endpoints answer 503.
func New(l *slog.Logger, engine *grid.Engine, store *columnstore.Store, opts Options) *Handler {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 32 << 20
	}
	if opts.IndexCacheSize <= 0 {
		opts.IndexCacheSize = 16
	}
	indexes, _ := lru.New[indexKey, any](opts.IndexCacheSize)
	return &Handler{log: l, engine: engine, store: store, opts: opts, indexes: indexes}
}

func (h *Handler) Mount(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Post("/grid/disk", h.gridDisk)
		r.Post("/grid/ring", h.gridRing)
		r.Post("/grid/aggregate", h.gridAggregate)
		r.Post("/grid/resolution", h.gridResolution)
		r.Post("/grid/parent", h.gridParent)
		r.Post("/grid/children", h.gridChildren)
		r.Post("/grid/compact", h.gridCompact)
		r.Post("/spatial/query", h.spatialQuery)

		r.Put("/columns/{name}", h.putColumn)
		r.Get("/columns/{name}", h.getColumn)
		r.Delete("/columns/{name}", h.deleteColumn)
		r.Get("/lists/{name}", h.getList)
	})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, h.opts.MaxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return err
		}
		return fmt.Errorf("%w: decode body: %w", errBadRequest, err)
	}
	return nil
}

// begin tags the request context for logging and returns a function that
// records the operation once the input size is known.
func begin(r *http.Request, op string) (context.Context, func(rows, nulls int)) {
	start := time.Now()
	ctx := mylog.WithOp(r.Context(), op)
	return ctx, func(rows, nulls int) {
		observability.ObserveOp(op, rows, nulls, time.Since(start).Seconds())
	}
}

func statusOf(err error) int {
	var (
		mbe *http.MaxBytesError
		ve  *column.ValidationError
		oe  *column.OffsetError
		pe  *column.ParseError
		le  *column.LengthError
	)
	switch {
	case errors.As(err, &mbe):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &ve), errors.As(err, &oe), errors.As(err, &pe), errors.As(err, &le),
		errors.Is(err, errBadRequest), errors.Is(err, grid.ErrArgument),
		errors.Is(err, columnstore.ErrBadName), errors.Is(err, geo.ErrUnsupportedGeometry):
		return http.StatusBadRequest
	case errors.Is(err, columnstore.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, codec.ErrMismatch):
		return http.StatusConflict
	case errors.Is(err, errNoStore):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, err error) {
	code := statusOf(err)
	if code >= 500 {
		h.log.ErrorContext(ctx, "request failed", "err", err)
	} else {
		h.log.DebugContext(ctx, "request rejected", "status", code, "err", err)
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func parseKind(s string) (h3index.Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "cell":
		return h3index.KindCell, nil
	case "edge", "directed_edge":
		return h3index.KindDirectedEdge, nil
	case "vertex":
		return h3index.KindVertex, nil
	default:
		return 0, fmt.Errorf("%w: unknown index kind %q", errBadRequest, s)
	}
}

// parseIndexes reads nullable index text. Strict mode fails on the first
// unparsable string.
func parseIndexes[V h3index.Index](in []*string, tolerant bool) (column.IndexColumn[V], error) {
	ss := make([]string, len(in))
	present := make([]bool, len(in))
	for i, s := range in {
		if s != nil {
			ss[i], present[i] = *s, true
		}
	}
	return column.ParseStrings[V](ss, present, tolerant)
}

func parseCells(in []*string) column.IndexColumn[h3index.Cell] {
	col, _ := parseIndexes[h3index.Cell](in, true)
	return col
}

func renderColumn[V h3index.Index](c column.IndexColumn[V]) []*string {
	out := make([]*string, c.Len())
	for i, n := range c.All() {
		if n.Valid {
			s := n.Value.String()
			out[i] = &s
		}
	}
	return out
}

func renderList[V h3index.Index](l column.List[V]) [][]string {
	out := make([][]string, l.Len())
	for i, sub := range l.SubColumns() {
		if !sub.Valid {
			continue
		}
		row := make([]string, 0, sub.Value.Len())
		for _, v := range sub.Value.Valid() {
			row = append(row, v.String())
		}
		out[i] = row
	}
	return out
}

func renderValueList[T any](l column.ValueList[T]) [][]T {
	out := make([][]T, l.Len())
	for i := range out {
		vals, ok := l.At(i)
		if !ok {
			continue
		}
		out[i] = append(make([]T, 0, vals.Len()), vals.Data()...)
	}
	return out
}

func renderArray[T any](a column.Array[T]) []*T {
	out := make([]*T, a.Len())
	for i, n := range a.All() {
		if n.Valid {
			v := n.Value
			out[i] = &v
		}
	}
	return out
}

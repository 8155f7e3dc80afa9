package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mohammed-shakir/h3-columnar/internal/core/observability"
	"github.com/mohammed-shakir/h3-columnar/internal/geo"
	"github.com/mohammed-shakir/h3-columnar/internal/h3index"
	mylog "github.com/mohammed-shakir/h3-columnar/internal/logger"
	"github.com/mohammed-shakir/h3-columnar/internal/spatial"
	"github.com/mohammed-shakir/h3-columnar/internal/store/codec"
	"github.com/mohammed-shakir/h3-columnar/internal/store/columnstore"
)

// spatialRequest carries exactly one of BBox, Polygon or Point, and either
// inline Indexes or the name of a stored Column. Coordinates are lng, lat
// in degrees.
type spatialRequest struct {
	Kind     string          `json:"kind,omitempty"`
	Indexes  []*string       `json:"indexes,omitempty"`
	Column   string          `json:"column,omitempty"`
	BBox     []float64       `json:"bbox,omitempty"`
	Polygon  json.RawMessage `json:"polygon,omitempty"`
	Point    []float64       `json:"point,omitempty"`
	Distance float64         `json:"distance,omitempty"`
}

type spatialResponse struct {
	Len     int   `json:"len"`
	Indexed int   `json:"indexed"`
	Count   int   `json:"count"`
	Matches []int `json:"matches"`
}

func (h *Handler) spatialQuery(w http.ResponseWriter, r *http.Request) {
	ctx, done := begin(r, "spatial_query")
	var req spatialRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(ctx, w, err)
		return
	}
	kind, err := parseKind(req.Kind)
	if err != nil {
		h.fail(ctx, w, err)
		return
	}
	ctx = mylog.WithIndexKind(ctx, kind.String())

	var out spatialResponse
	switch kind {
	case h3index.KindDirectedEdge:
		out, err = runSpatial[h3index.DirectedEdge](ctx, h, req, done)
	case h3index.KindVertex:
		out, err = runSpatial[h3index.Vertex](ctx, h, req, done)
	default:
		out, err = runSpatial[h3index.Cell](ctx, h, req, done)
	}
	if err != nil {
		h.fail(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// indexKey names a spatial index built from a stored column. sum changes
// whenever the stored frame does.
type indexKey struct {
	kind h3index.Kind
	name string
	sum  uint64
}

// storedIndex returns the spatial index of a stored column, building it
// only when no index of the current frame is cached. Cached indexes carry
// the geometry cache, so exact tests reuse decoded shapes across requests.
func storedIndex[V h3index.Index](ctx context.Context, h *Handler, name string) (*spatial.Index[V], error) {
	if h.store == nil {
		return nil, errNoStore
	}
	kind := h3index.KindOf[V]()
	hdr, err := h.store.Describe(ctx, kind, name)
	if err != nil {
		return nil, err
	}
	if hdr.Shape != codec.ShapeColumn {
		return nil, fmt.Errorf("%w: %s holds a %s", codec.ErrMismatch, name, hdr.Shape)
	}
	if v, ok := h.indexes.Get(indexKey{kind, name, hdr.Sum}); ok {
		if ix, ok := v.(*spatial.Index[V]); ok {
			return ix, nil
		}
	}

	col, hdr, err := columnstore.LoadColumnWithHeader[V](ctx, h.store, name)
	if err != nil {
		return nil, err
	}
	ix := spatial.Build(col, spatial.WithGeometryCache(h.opts.GeomCacheSize), spatial.WithWorkers(h.opts.Workers))
	h.indexes.Add(indexKey{kind, name, hdr.Sum}, ix)
	h.log.DebugContext(ctx, "spatial index built", "name", name, "len", col.Len(), "indexed", ix.Indexed())
	return ix, nil
}

// forgetIndexes drops cached indexes of name after it was replaced or
// deleted.
func (h *Handler) forgetIndexes(kind h3index.Kind, name string) {
	for _, k := range h.indexes.Keys() {
		if k.kind == kind && k.name == name {
			h.indexes.Remove(k)
		}
	}
}

func runSpatial[V h3index.Index](ctx context.Context, h *Handler, req spatialRequest, done func(rows, nulls int)) (spatialResponse, error) {
	if (req.Column == "") == (req.Indexes == nil) {
		done(0, 0)
		return spatialResponse{}, fmt.Errorf("%w: exactly one of indexes or column is required", errBadRequest)
	}
	var ix *spatial.Index[V]
	if req.Column != "" {
		var err error
		if ix, err = storedIndex[V](ctx, h, req.Column); err != nil {
			done(0, 0)
			return spatialResponse{}, err
		}
	} else {
		col, _ := parseIndexes[V](req.Indexes, true)
		ix = spatial.Build(col, spatial.WithWorkers(h.opts.Workers))
	}
	col := ix.Column()
	defer done(col.Len(), col.NullCount())

	shapes := 0
	for _, set := range []bool{req.BBox != nil, len(req.Polygon) > 0, req.Point != nil} {
		if set {
			shapes++
		}
	}
	if shapes != 1 {
		return spatialResponse{}, fmt.Errorf("%w: exactly one of bbox, polygon or point is required", errBadRequest)
	}

	if ix.Skipped() > 0 {
		h.log.WarnContext(ctx, "positions without geometry skipped", "skipped", ix.Skipped())
	}

	var (
		m          spatial.Mask
		shape      string
		candidates int
	)
	switch {
	case req.BBox != nil:
		if len(req.BBox) != 4 {
			return spatialResponse{}, fmt.Errorf("%w: bbox needs 4 numbers minx,miny,maxx,maxy", errBadRequest)
		}
		shape = "envelope"
		m = ix.IntersectEnvelope(geo.NewRect(req.BBox[0], req.BBox[1], req.BBox[2], req.BBox[3]))
		candidates = m.Count()
	case req.Point != nil:
		if len(req.Point) != 2 || req.Distance < 0 {
			return spatialResponse{}, fmt.Errorf("%w: point needs lng,lat and a non-negative distance", errBadRequest)
		}
		shape = "distance"
		m = ix.EnvelopesWithinDistance(req.Point[0], req.Point[1], req.Distance)
		candidates = m.Count()
	default:
		mp, err := geo.ParseAreaGeoJSON(req.Polygon)
		if err != nil {
			return spatialResponse{}, fmt.Errorf("%w: polygon: %w", errBadRequest, err)
		}
		if mp.NumPolygons() == 1 {
			shape = "polygon"
			m = ix.IntersectPolygon(mp.Polygon(0))
		} else {
			shape = "multipolygon"
			m = ix.IntersectMultiPolygon(mp)
		}
		if box, ok := geo.FromBounds(mp.Bounds()); ok {
			candidates = ix.IntersectEnvelope(box).Count()
		}
	}

	matches := m.Positions()
	observability.ObserveSpatialQuery(shape, candidates, len(matches))
	return spatialResponse{Len: m.Len(), Indexed: ix.Indexed(), Count: len(matches), Matches: matches}, nil
}

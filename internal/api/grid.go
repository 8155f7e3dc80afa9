package api

import (
	"cmp"
	"net/http"
	"slices"

	"github.com/mohammed-shakir/h3-columnar/internal/column"
	"github.com/mohammed-shakir/h3-columnar/internal/grid"
	"github.com/mohammed-shakir/h3-columnar/internal/h3index"
	"github.com/mohammed-shakir/h3-columnar/internal/store/columnstore"
)

type diskRequest struct {
	Cells     []*string `json:"cells"`
	K         int       `json:"k"`
	Distances bool      `json:"distances,omitempty"`
	// StoreAs saves the neighbour list under this name.
	StoreAs string `json:"store_as,omitempty"`
}

type ringRequest struct {
	Cells []*string `json:"cells"`
	KMin  int       `json:"k_min"`
	KMax  int       `json:"k_max"`
}

type listResponse struct {
	Cells     [][]string `json:"cells"`
	Distances [][]uint32 `json:"distances,omitempty"`
}

func (h *Handler) gridDisk(w http.ResponseWriter, r *http.Request) {
	ctx, done := begin(r, "grid_disk")
	var req diskRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(ctx, w, err)
		return
	}
	col := parseCells(req.Cells)
	defer done(col.Len(), col.NullCount())

	var (
		out  listResponse
		list column.List[h3index.Cell]
	)
	if req.Distances {
		dd, err := h.engine.GridDiskDistances(ctx, col, req.K)
		if err != nil {
			h.fail(ctx, w, err)
			return
		}
		list = dd.Cells
		out.Distances = renderValueList(dd.Distances)
	} else {
		l, err := h.engine.GridDisk(ctx, col, req.K)
		if err != nil {
			h.fail(ctx, w, err)
			return
		}
		list = l
	}
	if req.StoreAs != "" {
		if h.store == nil {
			h.fail(ctx, w, errNoStore)
			return
		}
		if err := columnstore.SaveList(ctx, h.store, req.StoreAs, list); err != nil {
			h.fail(ctx, w, err)
			return
		}
	}
	out.Cells = renderList(list)
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) gridRing(w http.ResponseWriter, r *http.Request) {
	ctx, done := begin(r, "grid_ring")
	var req ringRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(ctx, w, err)
		return
	}
	col := parseCells(req.Cells)
	defer done(col.Len(), col.NullCount())

	dd, err := h.engine.GridRingDistances(ctx, col, req.KMin, req.KMax)
	if err != nil {
		h.fail(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{
		Cells:     renderList(dd.Cells),
		Distances: renderValueList(dd.Distances),
	})
}

type aggregateRequest struct {
	Cells  []*string `json:"cells"`
	K      int       `json:"k"`
	Method string    `json:"method"`
}

type aggregateEntry struct {
	Cell     string `json:"cell"`
	Distance uint32 `json:"distance"`
}

// gridAggregate sorts the result by distance, then cell, so responses are
// stable.
func (h *Handler) gridAggregate(w http.ResponseWriter, r *http.Request) {
	ctx, done := begin(r, "grid_aggregate")
	var req aggregateRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(ctx, w, err)
		return
	}
	method, err := grid.ParseMethod(req.Method)
	if err != nil {
		h.fail(ctx, w, err)
		return
	}
	col := parseCells(req.Cells)
	defer done(col.Len(), col.NullCount())

	agg, err := h.engine.GridDiskAggregateK(ctx, col, req.K, method)
	if err != nil {
		h.fail(ctx, w, err)
		return
	}
	out := make([]aggregateEntry, 0, agg.Cells.Len())
	for i, c := range agg.Cells.Valid() {
		d, _ := agg.Distances.Get(i)
		out = append(out, aggregateEntry{Cell: c.String(), Distance: d})
	}
	slices.SortFunc(out, func(a, b aggregateEntry) int {
		return cmp.Or(cmp.Compare(a.Distance, b.Distance), cmp.Compare(a.Cell, b.Cell))
	})
	writeJSON(w, http.StatusOK, map[string]any{"method": method.String(), "cells": out})
}

type resolutionRequest struct {
	Cells      []*string `json:"cells"`
	Resolution *int      `json:"resolution"`
	Paired     bool      `json:"paired,omitempty"`
}

func (h *Handler) targetRes(req resolutionRequest) int {
	if req.Resolution == nil {
		return h.opts.DefaultRes
	}
	return *req.Resolution
}

type resolutionResponse struct {
	Cells  []*string `json:"cells"`
	Before []*string `json:"before,omitempty"`
}

func (h *Handler) gridResolution(w http.ResponseWriter, r *http.Request) {
	ctx, done := begin(r, "change_resolution")
	var req resolutionRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(ctx, w, err)
		return
	}
	col := parseCells(req.Cells)
	defer done(col.Len(), col.NullCount())

	if !req.Paired {
		out, err := h.engine.ChangeResolution(ctx, col, h.targetRes(req))
		if err != nil {
			h.fail(ctx, w, err)
			return
		}
		writeJSON(w, http.StatusOK, resolutionResponse{Cells: renderColumn(out)})
		return
	}
	pair, err := h.engine.ChangeResolutionPaired(ctx, col, h.targetRes(req))
	if err != nil {
		h.fail(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, resolutionResponse{
		Cells:  renderColumn(pair.After),
		Before: renderColumn(pair.Before),
	})
}

func (h *Handler) gridParent(w http.ResponseWriter, r *http.Request) {
	ctx, done := begin(r, "parent")
	var req resolutionRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(ctx, w, err)
		return
	}
	col := parseCells(req.Cells)
	defer done(col.Len(), col.NullCount())

	out, err := h.engine.Parent(col, h.targetRes(req))
	if err != nil {
		h.fail(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, resolutionResponse{Cells: renderColumn(out)})
}

func (h *Handler) gridChildren(w http.ResponseWriter, r *http.Request) {
	ctx, done := begin(r, "children")
	var req resolutionRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(ctx, w, err)
		return
	}
	col := parseCells(req.Cells)
	defer done(col.Len(), col.NullCount())

	out, err := h.engine.Children(ctx, col, h.targetRes(req))
	if err != nil {
		h.fail(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Cells: renderList(out)})
}

func (h *Handler) gridCompact(w http.ResponseWriter, r *http.Request) {
	ctx, done := begin(r, "compact")
	var req struct {
		Cells []*string `json:"cells"`
	}
	if err := h.decode(w, r, &req); err != nil {
		h.fail(ctx, w, err)
		return
	}
	col := parseCells(req.Cells)
	defer done(col.Len(), col.NullCount())

	out, err := h.engine.Compact(col)
	if err != nil {
		h.fail(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, resolutionResponse{Cells: renderColumn(out)})
}

package grid

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/mohammed-shakir/h3-columnar/internal/column"
	"github.com/mohammed-shakir/h3-columnar/internal/h3index"
)

type Method uint8

const (
	Min Method = iota + 1
	Max
)

func (m Method) String() string {
	switch m {
	case Min:
		return "min"
	case Max:
		return "max"
	default:
		return "unknown"
	}
}

func ParseMethod(s string) (Method, error) {
	switch s {
	case "min", "Min", "MIN":
		return Min, nil
	case "max", "Max", "MAX":
		return Max, nil
	default:
		return 0, fmt.Errorf("%w: unknown aggregation method %q", ErrArgument, s)
	}
}

func (m Method) keep(old, cand uint32) bool {
	if m == Max {
		return cand > old
	}
	return cand < old
}

// Aggregated holds deduplicated neighbour cells and their reduced distance.
// Order is unspecified.
type Aggregated struct {
	Cells     column.IndexColumn[h3index.Cell]
	Distances column.Array[uint32]
}

const aggregateShards = 16

type shardedDistances [aggregateShards]map[h3index.Cell]uint32

func shardOf(c h3index.Cell) int {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(c))
	return int(xxhash.Sum64(b[:]) % aggregateShards)
}

func (s *shardedDistances) put(m Method, c h3index.Cell, d uint32) {
	sh := shardOf(c)
	if s[sh] == nil {
		s[sh] = make(map[h3index.Cell]uint32)
	}
	if old, ok := s[sh][c]; !ok || m.keep(old, d) {
		s[sh][c] = d
	}
}

// GridDiskAggregateK unions the k-disks of every valid input cell. A cell
// reached from several inputs keeps the smallest (Min) or largest (Max)
// distance.
func (e *Engine) GridDiskAggregateK(ctx context.Context, col column.IndexColumn[h3index.Cell], k int, method Method) (Aggregated, error) {
	if err := e.checkK(k); err != nil {
		return Aggregated{}, err
	}
	if method != Min && method != Max {
		return Aggregated{}, fmt.Errorf("%w: unknown aggregation method %d", ErrArgument, method)
	}

	parts, err := chunked(ctx, e, col.Len(), func(lo, hi int) *shardedDistances {
		local := new(shardedDistances)
		var cells []h3index.Cell
		var dists []uint32
		for i := lo; i < hi; i++ {
			c, ok := col.Get(i)
			if !ok {
				continue
			}
			var err error
			cells, dists, err = e.mapper.DiskDistances(c, k, cells[:0], dists[:0])
			if err != nil {
				continue
			}
			for j, n := range cells {
				local.put(method, n, dists[j])
			}
		}
		return local
	})
	if err != nil {
		return Aggregated{}, err
	}

	// merge shard by shard; shards hold disjoint cells
	var merged [aggregateShards]map[h3index.Cell]uint32
	var g errgroup.Group
	g.SetLimit(e.opts.Workers)
	for sh := range aggregateShards {
		g.Go(func() error {
			var dst map[h3index.Cell]uint32
			for _, p := range parts {
				src := p[sh]
				if dst == nil {
					dst = src
					continue
				}
				for c, d := range src {
					if old, ok := dst[c]; !ok || method.keep(old, d) {
						dst[c] = d
					}
				}
			}
			merged[sh] = dst
			return nil
		})
	}
	_ = g.Wait()

	n := 0
	for _, m := range merged {
		n += len(m)
	}
	cells := make([]h3index.Cell, 0, n)
	dists := make([]uint32, 0, n)
	for _, m := range merged {
		for c, d := range m {
			cells = append(cells, c)
			dists = append(dists, d)
		}
	}
	arr, err := column.NewArray(dists, nil)
	if err != nil {
		return Aggregated{}, err
	}
	return Aggregated{Cells: column.FromDerived(cells), Distances: arr}, nil
}

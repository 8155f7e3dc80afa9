// Package grid runs H3 grid algorithms over whole index columns.
//
// Input positions are split into contiguous chunks that run on a bounded
// worker pool; chunk results are merged back in input order. Null inputs and
// per-cell failures become null outer elements, or are dropped where the
// output is a flat column.
package grid

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/mohammed-shakir/h3-columnar/internal/mapper"
	h3mapper "github.com/mohammed-shakir/h3-columnar/internal/mapper/h3"
)

const defaultChunkSize = 4096

// ErrArgument marks a rejected k, ring, resolution or method.
var ErrArgument = errors.New("grid: invalid argument")

type Options struct {
	// Workers bounds concurrent chunks. Zero means GOMAXPROCS.
	Workers int
	// ChunkSize is the number of input positions per chunk.
	ChunkSize int
	// MaxK rejects larger disk radii. Zero means no limit.
	MaxK int
}

type Engine struct {
	opts   Options
	mapper mapper.Interface
}

func New(opts Options) *Engine {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = defaultChunkSize
	}
	return &Engine{opts: opts, mapper: h3mapper.New()}
}

func (e *Engine) Options() Options { return e.opts }

func checkRes(res int) error {
	if err := h3mapper.ValidateRes(res); err != nil {
		return fmt.Errorf("%w: %w", ErrArgument, err)
	}
	return nil
}

func (e *Engine) checkK(k int) error {
	if k < 0 {
		return fmt.Errorf("%w: k %d must be >= 0", ErrArgument, k)
	}
	if e.opts.MaxK > 0 && k > e.opts.MaxK {
		return fmt.Errorf("%w: k %d exceeds limit %d", ErrArgument, k, e.opts.MaxK)
	}
	return nil
}

// chunked runs fn over [0, n) in contiguous chunks and returns the chunk
// results in order. It stops scheduling new chunks once ctx is done.
func chunked[R any](ctx context.Context, e *Engine, n int, fn func(lo, hi int) R) ([]R, error) {
	if n == 0 {
		return nil, ctx.Err()
	}
	size := e.opts.ChunkSize
	parts := make([]R, (n+size-1)/size)
	if len(parts) == 1 || e.opts.Workers == 1 {
		for i := range parts {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			parts[i] = fn(i*size, min((i+1)*size, n))
		}
		return parts, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for i := range parts {
		lo, hi := i*size, min((i+1)*size, n)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			parts[i] = fn(lo, hi)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return parts, nil
}

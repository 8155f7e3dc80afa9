// Package columnstore persists encoded index columns and lists by name.
//
// Keys follow h3col:<kind>:<name>. A name holds either a column or a list
// of its kind; loading with the other shape fails with codec.ErrMismatch.
package columnstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/mohammed-shakir/h3-columnar/internal/column"
	"github.com/mohammed-shakir/h3-columnar/internal/h3index"
	"github.com/mohammed-shakir/h3-columnar/internal/store/codec"
)

var (
	ErrNotFound = errors.New("columnstore: not found")
	ErrBadName  = errors.New("columnstore: invalid name")
)

var nameRE = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,128}$`)

// KV is the byte store underneath; redisstore.Client implements it.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	MGet(ctx context.Context, keys []string) (map[string][]byte, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) (int64, error)
}

type Options struct {
	// TTLFor returns the lifetime of a name; nil or zero means no expiry.
	TTLFor    func(name string) time.Duration
	OpTimeout time.Duration
	Logger    *slog.Logger
}

type Store struct {
	kv   KV
	opts Options
	log  *slog.Logger
}

func New(kv KV, opts Options) *Store {
	l := opts.Logger
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	return &Store{kv: kv, opts: opts, log: l.With("component", "columnstore")}
}

func Key(kind h3index.Kind, name string) string {
	return "h3col:" + kind.String() + ":" + name
}

func checkName(name string) error {
	if !nameRE.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrBadName, name)
	}
	return nil
}

func (s *Store) ttl(name string) time.Duration {
	if s.opts.TTLFor == nil {
		return 0
	}
	return s.opts.TTLFor(name)
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.OpTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.opts.OpTimeout)
}

func (s *Store) put(ctx context.Context, kind h3index.Kind, name string, frame []byte) error {
	if err := checkName(name); err != nil {
		return err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	key := Key(kind, name)
	if err := s.kv.Set(ctx, key, frame, s.ttl(name)); err != nil {
		return fmt.Errorf("columnstore: save %s: %w", key, err)
	}
	s.log.DebugContext(ctx, "saved", "key", key, "bytes", len(frame))
	return nil
}

func (s *Store) get(ctx context.Context, kind h3index.Kind, name string) ([]byte, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	key := Key(kind, name)
	frame, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("columnstore: load %s: %w", key, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return frame, nil
}

func SaveColumn[V h3index.Index](ctx context.Context, s *Store, name string, c column.IndexColumn[V]) error {
	return s.put(ctx, h3index.KindOf[V](), name, codec.EncodeColumn(c))
}

func LoadColumn[V h3index.Index](ctx context.Context, s *Store, name string) (column.IndexColumn[V], error) {
	c, _, err := LoadColumnWithHeader[V](ctx, s, name)
	return c, err
}

// LoadColumnWithHeader also returns the header of the frame the column was
// decoded from, so callers can key derived state on Header.Sum.
func LoadColumnWithHeader[V h3index.Index](ctx context.Context, s *Store, name string) (column.IndexColumn[V], codec.Header, error) {
	frame, err := s.get(ctx, h3index.KindOf[V](), name)
	if err != nil {
		return column.IndexColumn[V]{}, codec.Header{}, err
	}
	c, err := codec.DecodeColumn[V](frame)
	if err != nil {
		s.log.WarnContext(ctx, "undecodable column", "name", name, "err", err)
		return column.IndexColumn[V]{}, codec.Header{}, fmt.Errorf("columnstore: %s: %w", name, err)
	}
	h, _ := codec.ReadHeader(frame)
	return c, h, nil
}

func SaveList[V h3index.Index](ctx context.Context, s *Store, name string, l column.List[V]) error {
	return s.put(ctx, h3index.KindOf[V](), name, codec.EncodeList(l))
}

func LoadList[V h3index.Index](ctx context.Context, s *Store, name string) (column.List[V], error) {
	frame, err := s.get(ctx, h3index.KindOf[V](), name)
	if err != nil {
		return column.List[V]{}, err
	}
	l, err := codec.DecodeList[V](frame)
	if err != nil {
		s.log.WarnContext(ctx, "undecodable list", "name", name, "err", err)
		return column.List[V]{}, fmt.Errorf("columnstore: %s: %w", name, err)
	}
	return l, nil
}

// LoadColumns fetches several columns in one round trip and concatenates
// them in argument order. Any missing name fails the call.
func LoadColumns[V h3index.Index](ctx context.Context, s *Store, names ...string) (column.IndexColumn[V], error) {
	kind := h3index.KindOf[V]()
	keys := make([]string, len(names))
	for i, n := range names {
		if err := checkName(n); err != nil {
			return column.IndexColumn[V]{}, err
		}
		keys[i] = Key(kind, n)
	}
	cctx, cancel := s.withTimeout(ctx)
	defer cancel()
	frames, err := s.kv.MGet(cctx, keys)
	if err != nil {
		return column.IndexColumn[V]{}, fmt.Errorf("columnstore: load %d columns: %w", len(keys), err)
	}
	cols := make([]column.IndexColumn[V], len(keys))
	for i, key := range keys {
		frame, ok := frames[key]
		if !ok {
			return column.IndexColumn[V]{}, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		if cols[i], err = codec.DecodeColumn[V](frame); err != nil {
			return column.IndexColumn[V]{}, fmt.Errorf("columnstore: %s: %w", names[i], err)
		}
	}
	return column.Concat(cols...), nil
}

// Delete reports whether name existed for kind.
func (s *Store) Delete(ctx context.Context, kind h3index.Kind, name string) (bool, error) {
	if err := checkName(name); err != nil {
		return false, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	n, err := s.kv.Del(ctx, Key(kind, name))
	if err != nil {
		return false, fmt.Errorf("columnstore: delete %s: %w", Key(kind, name), err)
	}
	return n > 0, nil
}

// Describe returns the frame header stored under name without decoding the
// body.
func (s *Store) Describe(ctx context.Context, kind h3index.Kind, name string) (codec.Header, error) {
	frame, err := s.get(ctx, kind, name)
	if err != nil {
		return codec.Header{}, err
	}
	return codec.ReadHeader(frame)
}

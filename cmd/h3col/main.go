// Command h3col runs one grid operation over index text read from stdin,
// one index per line. Blank or unparsable lines are null inputs.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/mohammed-shakir/h3-columnar/internal/column"
	"github.com/mohammed-shakir/h3-columnar/internal/grid"
	"github.com/mohammed-shakir/h3-columnar/internal/h3index"
	"github.com/mohammed-shakir/h3-columnar/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("h3col", flag.ContinueOnError)
	fs.SetOutput(stderr)
	op := fs.String("op", "grid-disk", "grid-disk|ring|aggregate|change-res|parent|children|compact")
	k := fs.Int("k", 1, "disk radius; ring outer radius")
	kMin := fs.Int("k-min", 0, "ring inner radius")
	res := fs.Int("res", 8, "target resolution")
	method := fs.String("method", "min", "aggregate method: min|max")
	workers := fs.Int("workers", 0, "worker goroutines (0 = GOMAXPROCS)")
	logLevel := fs.String("log-level", "warn", "log level")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	zl := logger.Build(logger.Config{Level: *logLevel, Console: true, Component: "cli"}, stderr)
	log := logger.NewSlog(&zl)

	col, err := readCells(stdin)
	if err != nil {
		log.Error("read input", "err", err)
		return 1
	}
	log.Debug("input read", "rows", col.Len(), "nulls", col.NullCount())

	e := grid.New(grid.Options{Workers: *workers})
	w := bufio.NewWriter(stdout)
	defer func() { _ = w.Flush() }()

	if err := apply(ctx, e, *op, col, opArgs{k: *k, kMin: *kMin, res: *res, method: *method}, w); err != nil {
		log.Error("operation failed", "op", *op, "err", err)
		return 1
	}
	return 0
}

type opArgs struct {
	k, kMin, res int
	method       string
}

func readCells(r io.Reader) (column.IndexColumn[h3index.Cell], error) {
	var ss []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64<<10), 1<<20)
	for sc.Scan() {
		ss = append(ss, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return column.IndexColumn[h3index.Cell]{}, fmt.Errorf("scan stdin: %w", err)
	}
	return column.ParseStrings[h3index.Cell](ss, nil, true)
}

func apply(ctx context.Context, e *grid.Engine, op string, col column.IndexColumn[h3index.Cell], a opArgs, w io.Writer) error {
	switch op {
	case "grid-disk":
		l, err := e.GridDisk(ctx, col, a.k)
		if err != nil {
			return err
		}
		writeList(w, l)
	case "children":
		l, err := e.Children(ctx, col, a.res)
		if err != nil {
			return err
		}
		writeList(w, l)
	case "ring":
		dd, err := e.GridRingDistances(ctx, col, a.kMin, a.k)
		if err != nil {
			return err
		}
		for i := range dd.Cells.Len() {
			cells, ok := dd.Cells.At(i)
			if !ok {
				fmt.Fprintln(w, "null")
				continue
			}
			dists, _ := dd.Distances.At(i)
			parts := make([]string, 0, cells.Len())
			for j, c := range cells.Valid() {
				d, _ := dists.Get(j)
				parts = append(parts, c.String()+":"+strconv.FormatUint(uint64(d), 10))
			}
			fmt.Fprintln(w, strings.Join(parts, ","))
		}
	case "aggregate":
		m, err := grid.ParseMethod(a.method)
		if err != nil {
			return err
		}
		agg, err := e.GridDiskAggregateK(ctx, col, a.k, m)
		if err != nil {
			return err
		}
		for i, c := range agg.Cells.Valid() {
			d, _ := agg.Distances.Get(i)
			fmt.Fprintf(w, "%s\t%d\n", c, d)
		}
	case "change-res":
		out, err := e.ChangeResolution(ctx, col, a.res)
		if err != nil {
			return err
		}
		writeColumn(w, out)
	case "parent":
		out, err := e.Parent(col, a.res)
		if err != nil {
			return err
		}
		writeColumn(w, out)
	case "compact":
		out, err := e.Compact(col)
		if err != nil {
			return err
		}
		writeColumn(w, out)
	default:
		return fmt.Errorf("unknown op %q", op)
	}
	return nil
}

func writeColumn(w io.Writer, c column.IndexColumn[h3index.Cell]) {
	for _, n := range c.All() {
		if !n.Valid {
			fmt.Fprintln(w, "null")
			continue
		}
		fmt.Fprintln(w, n.Value)
	}
}

func writeList(w io.Writer, l column.List[h3index.Cell]) {
	for _, sub := range l.SubColumns() {
		if !sub.Valid {
			fmt.Fprintln(w, "null")
			continue
		}
		parts := make([]string, 0, sub.Value.Len())
		for _, c := range sub.Value.Valid() {
			parts = append(parts, c.String())
		}
		fmt.Fprintln(w, strings.Join(parts, ","))
	}
}

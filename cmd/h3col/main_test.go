package main

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	h3 "github.com/uber/h3-go/v4"
)

func TestRun_Ops(t *testing.T) {
	c, err := h3.LatLngToCell(h3.LatLng{Lat: 59.33, Lng: 18.07}, 7)
	if err != nil {
		t.Fatalf("LatLngToCell: %v", err)
	}
	in := c.String() + "\n\nnot-a-cell\n"

	cases := []struct {
		args  []string
		lines int
		check func(lines []string) bool
	}{
		{[]string{"-op", "grid-disk", "-k", "1"}, 3, func(l []string) bool {
			return strings.Count(l[0], ",") == 6 && l[1] == "null" && l[2] == "null"
		}},
		{[]string{"-op", "ring", "-k-min", "1", "-k", "1"}, 3, func(l []string) bool {
			return strings.Count(l[0], ":1") == 6 && !strings.Contains(l[0], ":0")
		}},
		{[]string{"-op", "aggregate", "-k", "1"}, 7, nil},
		{[]string{"-op", "parent", "-res", "5"}, 3, func(l []string) bool { return l[1] == "null" && l[0] != "null" }},
		{[]string{"-op", "children", "-res", "8"}, 3, func(l []string) bool { return strings.Count(l[0], ",") == 6 }},
		{[]string{"-op", "change-res", "-res", "8"}, 7, nil},
		{[]string{"-op", "compact"}, 1, func(l []string) bool { return l[0] == c.String() }},
	}
	for _, tc := range cases {
		var out, errOut bytes.Buffer
		if code := run(context.Background(), tc.args, strings.NewReader(in), &out, &errOut); code != 0 {
			t.Fatalf("%v: exit=%d stderr=%s", tc.args, code, errOut.String())
		}
		lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
		if len(lines) != tc.lines {
			t.Fatalf("%v: %d lines want %d:\n%s", tc.args, len(lines), tc.lines, out.String())
		}
		if tc.check != nil && !tc.check(lines) {
			t.Fatalf("%v: unexpected output:\n%s", tc.args, out.String())
		}
	}
}

func TestRun_Errors(t *testing.T) {
	cases := [][]string{
		{"-op", "nope"},
		{"-op", "grid-disk", "-k", "-1"},
		{"-op", "aggregate", "-method", "avg"},
		{"-bogus-flag"},
	}
	for _, args := range cases {
		if code := run(context.Background(), args, strings.NewReader("\n"), io.Discard, io.Discard); code == 0 {
			t.Fatalf("%v: expected non-zero exit", args)
		}
	}
}

package main

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	gocmp "github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/calvinalkan/sandbox-probe/probe"
)

// Mismatch is one failed check.
type Mismatch struct {
	// Field names the checked part, e.g. "golden env" or "expect.rootInclude".
	Field string
	// Detail is a human-readable explanation, possibly a multi-line diff.
	Detail string
}

func (m Mismatch) String() string {
	return m.Field + ": " + m.Detail
}

// Env and Root order is whatever the host's environ and readdir produce, so
// both are compared as sets.
var (
	sortStrings = cmpopts.SortSlices(func(a, b string) bool { return a < b })
	sortEntries = cmpopts.SortSlices(func(a, b probe.Entry) bool { return cmp.Compare(a.Name, b.Name) < 0 })
	equateEmpty = cmpopts.EquateEmpty()
)

// CompareGolden checks got against a golden transcript. Dir and Args must
// match exactly; Env and Root must hold the same elements in any order.
func CompareGolden(want, got *probe.Transcript) []Mismatch {
	var out []Mismatch

	if want.Dir != got.Dir {
		out = append(out, Mismatch{Field: "golden dir", Detail: fmt.Sprintf("want %q, got %q", want.Dir, got.Dir)})
	}

	if diff := gocmp.Diff(want.Args, got.Args, equateEmpty); diff != "" {
		out = append(out, Mismatch{Field: "golden args", Detail: "(-want +got)\n" + diff})
	}

	if diff := gocmp.Diff(want.Env, got.Env, equateEmpty, sortStrings); diff != "" {
		out = append(out, Mismatch{Field: "golden env", Detail: "(-want +got)\n" + diff})
	}

	if diff := gocmp.Diff(want.Root, got.Root, equateEmpty, sortEntries); diff != "" {
		out = append(out, Mismatch{Field: "golden root", Detail: "(-want +got)\n" + diff})
	}

	return out
}

// CompareExpect applies every set field of exp to got.
func CompareExpect(exp *Expect, got *probe.Transcript) []Mismatch {
	var out []Mismatch

	if exp.Dir != nil && *exp.Dir != got.Dir {
		out = append(out, Mismatch{Field: "expect.dir", Detail: fmt.Sprintf("want %q, got %q", *exp.Dir, got.Dir)})
	}

	if exp.Args != nil {
		if diff := gocmp.Diff(exp.Args, got.Args, equateEmpty); diff != "" {
			out = append(out, Mismatch{Field: "expect.args", Detail: "(-want +got)\n" + diff})
		}
	}

	gotEnv := got.EnvMap()

	if exp.Env != nil {
		if diff := gocmp.Diff(exp.Env, gotEnv, equateEmpty); diff != "" {
			out = append(out, Mismatch{Field: "expect.env", Detail: "(-want +got)\n" + diff})
		}
	}

	for _, k := range sortedKeys(exp.EnvInclude) {
		want := exp.EnvInclude[k]

		v, ok := gotEnv[k]

		switch {
		case !ok:
			out = append(out, Mismatch{Field: "expect.envInclude", Detail: fmt.Sprintf("%s is not set, want %q", k, want)})
		case v != want:
			out = append(out, Mismatch{Field: "expect.envInclude", Detail: fmt.Sprintf("%s = %q, want %q", k, v, want)})
		}
	}

	gotRoot := got.RootNames()

	if exp.Root != nil {
		if diff := gocmp.Diff(exp.Root, gotRoot, equateEmpty, sortStrings); diff != "" {
			out = append(out, Mismatch{Field: "expect.root", Detail: "(-want +got)\n" + diff})
		}
	}

	if missing := subtract(exp.RootInclude, gotRoot); len(missing) > 0 {
		out = append(out, Mismatch{Field: "expect.rootInclude", Detail: "missing " + strings.Join(missing, " ")})
	}

	if present := intersect(exp.RootExclude, gotRoot); len(present) > 0 {
		out = append(out, Mismatch{Field: "expect.rootExclude", Detail: "present " + strings.Join(present, " ")})
	}

	return out
}

// checkCount returns how many checks exp and a golden file contribute, for
// the summary line.
func checkCount(exp *Expect, golden bool) int {
	n := len(exp.EnvInclude) + len(exp.RootInclude) + len(exp.RootExclude)

	for _, set := range []bool{exp.Dir != nil, exp.Args != nil, exp.Env != nil, exp.Root != nil, golden} {
		if set {
			n++
		}
	}

	return n
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	return keys
}

// subtract returns the elements of want not in have, in want order.
func subtract(want, have []string) []string {
	var out []string

	for _, w := range want {
		if !slices.Contains(have, w) {
			out = append(out, w)
		}
	}

	return out
}

// intersect returns the elements of want also in have, in want order.
func intersect(want, have []string) []string {
	var out []string

	for _, w := range want {
		if slices.Contains(have, w) {
			out = append(out, w)
		}
	}

	return out
}

package main

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/calvinalkan/sandbox-probe/probe"
)

func sampleTranscript() probe.Transcript {
	return probe.Transcript{
		Dir:  "/home/u",
		Args: []string{"probe", "--x"},
		Env:  []string{"A=1", "B=2"},
		Root: []probe.Entry{{Name: "bin", IsDir: true}, {Name: "readme.txt"}},
	}
}

func fields(mismatches []Mismatch) []string {
	out := make([]string, 0, len(mismatches))
	for _, m := range mismatches {
		out = append(out, m.Field)
	}

	return out
}

func Test_CompareGolden_Passes_When_Env_And_Root_Are_Reordered(t *testing.T) {
	t.Parallel()

	want := sampleTranscript()
	got := sampleTranscript()
	got.Env = []string{"B=2", "A=1"}
	got.Root = []probe.Entry{{Name: "readme.txt"}, {Name: "bin", IsDir: true}}

	if m := CompareGolden(&want, &got); len(m) != 0 {
		t.Fatalf("unexpected mismatches: %v", m)
	}
}

func Test_CompareGolden_Passes_When_Empty_And_Nil_Lists_Compared(t *testing.T) {
	t.Parallel()

	want := probe.Transcript{Args: []string{}, Env: []string{}}
	got := probe.Transcript{}

	if m := CompareGolden(&want, &got); len(m) != 0 {
		t.Fatalf("unexpected mismatches: %v", m)
	}
}

func Test_CompareGolden_Reports_Every_Differing_Field(t *testing.T) {
	t.Parallel()

	want := sampleTranscript()
	got := probe.Transcript{
		Dir:  "",
		Args: []string{"--x", "probe"},
		Env:  []string{"A=1"},
		Root: []probe.Entry{{Name: "bin"}, {Name: "readme.txt"}},
	}

	m := CompareGolden(&want, &got)

	wantFields := []string{"golden dir", "golden args", "golden env", "golden root"}
	if diff := cmp.Diff(wantFields, fields(m)); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}

	if m[0].Detail != `want "/home/u", got ""` {
		t.Errorf("dir detail = %q", m[0].Detail)
	}

	for _, mm := range m[1:] {
		if !strings.HasPrefix(mm.Detail, "(-want +got)\n") {
			t.Errorf("%s detail should be a diff, got %q", mm.Field, mm.Detail)
		}
	}

	AssertContains(t, m[2].Detail, "B=2")
}

func Test_CompareExpect_Passes_When_No_Field_Set(t *testing.T) {
	t.Parallel()

	got := sampleTranscript()

	if m := CompareExpect(&Expect{}, &got); len(m) != 0 {
		t.Fatalf("unexpected mismatches: %v", m)
	}
}

func Test_CompareExpect_Passes_When_All_Fields_Match(t *testing.T) {
	t.Parallel()

	got := sampleTranscript()
	exp := Expect{
		Dir:         stringPtr("/home/u"),
		Args:        []string{"probe", "--x"},
		Env:         map[string]string{"B": "2", "A": "1"},
		EnvInclude:  map[string]string{"A": "1"},
		Root:        []string{"readme.txt", "bin/"},
		RootInclude: []string{"bin/"},
		RootExclude: []string{"home/", "bin"},
	}

	if m := CompareExpect(&exp, &got); len(m) != 0 {
		t.Fatalf("unexpected mismatches: %v", m)
	}
}

func Test_CompareExpect_Checks_Empty_Dir_When_Set_To_Empty(t *testing.T) {
	t.Parallel()

	got := sampleTranscript()

	m := CompareExpect(&Expect{Dir: stringPtr("")}, &got)

	if diff := cmp.Diff([]string{"expect.dir"}, fields(m)); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
}

func Test_CompareExpect_Reports_Every_Failure(t *testing.T) {
	t.Parallel()

	got := sampleTranscript()
	exp := Expect{
		Dir:         stringPtr("/"),
		Args:        []string{"probe"},
		Env:         map[string]string{},
		EnvInclude:  map[string]string{"A": "2", "Z": "9"},
		Root:        []string{"bin/"},
		RootInclude: []string{"bin/", "etc/", "tmp/"},
		RootExclude: []string{"readme.txt"},
	}

	m := CompareExpect(&exp, &got)

	want := []Mismatch{
		{Field: "expect.dir", Detail: `want "/", got "/home/u"`},
		{Field: "expect.args"},
		{Field: "expect.env"},
		{Field: "expect.envInclude", Detail: `A = "1", want "2"`},
		{Field: "expect.envInclude", Detail: `Z is not set, want "9"`},
		{Field: "expect.root"},
		{Field: "expect.rootInclude", Detail: "missing etc/ tmp/"},
		{Field: "expect.rootExclude", Detail: "present readme.txt"},
	}

	if diff := cmp.Diff(fields(want), fields(m)); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}

	for i, w := range want {
		if w.Detail != "" && m[i].Detail != w.Detail {
			t.Errorf("%s detail = %q, want %q", w.Field, m[i].Detail, w.Detail)
		}
	}
}

func Test_CompareExpect_Uses_Last_Value_When_Env_Key_Repeats(t *testing.T) {
	t.Parallel()

	got := probe.Transcript{Env: []string{"A=1", "A=2"}}

	m := CompareExpect(&Expect{EnvInclude: map[string]string{"A": "2"}}, &got)
	if len(m) != 0 {
		t.Fatalf("unexpected mismatches: %v", m)
	}
}

func Test_CheckCount_Counts_Set_Fields_And_Include_Entries(t *testing.T) {
	t.Parallel()

	exp := Expect{
		Dir:         stringPtr(""),
		EnvInclude:  map[string]string{"A": "1", "B": "2"},
		RootExclude: []string{"home/"},
	}

	if n := checkCount(&exp, true); n != 5 {
		t.Errorf("checkCount = %d, want 5", n)
	}

	if n := checkCount(&Expect{}, false); n != 0 {
		t.Errorf("checkCount of empty = %d, want 0", n)
	}
}

// Package probe reports what a process can see of its host: the working
// directory, its invocation arguments, its environment and the entries of
// the filesystem root.
//
// The report is a fixed textual format meant to be compared against a golden
// transcript by an external runner:
//
//	Dir: /home/u
//	Args: probe --x
//	Env:
//	 A=1
//
//	Root: bin/ readme.txt
//
// Every query is best-effort. A working directory that cannot be resolved is
// reported as empty, a root that cannot be opened is reported without
// entries, and root entries that cannot be read or whose names are not valid
// UTF-8 are skipped. [Reporter.Report] never returns an error.
//
// # Hosts
//
// A [Host] supplies the four queries. [OSHost] reads the current process;
// tests and embedders can supply their own, for example with an
// [testing/fstest.MapFS] as the root.
//
// [Parse] and [Transcript.Format] convert between the report and its
// structured form for runners that compare transcripts.
package probe

import (
	"bufio"
	"io"
	"io/fs"
	"strings"
)

// Host is the source of everything a report contains.
type Host interface {
	// Getwd returns the current working directory.
	Getwd() (string, error)
	// Args returns the invocation arguments, argv[0] first.
	Args() []string
	// Environ returns KEY=VALUE pairs in the order the platform provides.
	Environ() []string
	// Root returns the filesystem whose "." is the root directory.
	Root() fs.FS
}

// Reporter writes reports for a Host.
//
// The zero value is not usable; Host must be set.
type Reporter struct {
	Host Host

	// Debugf, if set, receives the errors that the report swallows.
	// The report itself never mentions them.
	Debugf func(format string, args ...any)
}

// Report writes the full report for h to w. It is shorthand for
// (&Reporter{Host: h}).Report(w).
func Report(w io.Writer, h Host) {
	(&Reporter{Host: h}).Report(w)
}

// Report writes the four sections to w in order. Write errors are ignored.
func (r *Reporter) Report(w io.Writer) {
	bw := bufio.NewWriter(w)

	r.reportDir(bw)
	r.reportArgs(bw)
	r.reportEnv(bw)
	r.reportRoot(bw)

	_ = bw.Flush()
}

func (r *Reporter) reportDir(w *bufio.Writer) {
	wd, err := r.Host.Getwd()
	if err != nil {
		r.debugf("probe(dir): getwd: %v", err)

		wd = ""
	}

	writeDir(w, wd)
}

func (r *Reporter) reportArgs(w *bufio.Writer) {
	writeArgs(w, r.Host.Args())
}

func (r *Reporter) reportEnv(w *bufio.Writer) {
	writeEnv(w, Environ(r.Host.Environ(), r.Debugf))
}

func (r *Reporter) reportRoot(w *bufio.Writer) {
	_, _ = w.WriteString(headerRoot)

	for entry := range Entries(r.Host.Root(), r.Debugf) {
		writeEntry(w, entry)
	}

	_ = w.WriteByte('\n')
}

func (r *Reporter) debugf(format string, args ...any) {
	if r.Debugf != nil {
		r.Debugf(format, args...)
	}
}

// Environ filters raw KEY=VALUE entries down to the ones a report prints.
// Entries without "=" or with an empty key are dropped. Order is kept. The
// separator is the first "=" after the first byte, so "=C:=C:\\" has key "=C:".
func Environ(raw []string, debugf func(string, ...any)) []string {
	out := make([]string, 0, len(raw))

	for _, kv := range raw {
		_, _, ok := cutEnv(kv)
		if !ok {
			if debugf != nil {
				debugf("probe(env): skipping malformed entry %q", kv)
			}

			continue
		}

		out = append(out, kv)
	}

	return out
}

// cutEnv splits kv at the first "=" after its first byte. ok is false when
// there is no such "=", which includes an empty key.
func cutEnv(kv string) (key, value string, ok bool) {
	if kv == "" {
		return "", "", false
	}

	i := strings.IndexByte(kv[1:], '=')
	if i < 0 {
		return "", "", false
	}

	return kv[:i+1], kv[i+2:], true
}

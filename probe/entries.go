package probe

import (
	"errors"
	"io"
	"io/fs"
	"iter"
	"strings"
	"unicode/utf8"
)

// readDirBatch is the number of entries requested per ReadDir call.
const readDirBatch = 64

// maxStalledReads is how many consecutive ReadDir calls may fail without
// returning entries before the listing gives up. A failed entry advances the
// read position, so a single empty failure does not mean the reader is stuck.
const maxStalledReads = 2

// Entry is one root directory entry as printed in a report.
type Entry struct {
	Name  string
	IsDir bool
}

// String returns the name, with a trailing "/" for directories.
func (e Entry) String() string {
	if e.IsDir {
		return e.Name + "/"
	}

	return e.Name
}

// ParseEntry is the inverse of [Entry.String].
func ParseEntry(s string) Entry {
	name, isDir := strings.CutSuffix(s, "/")

	return Entry{Name: name, IsDir: isDir}
}

// Entries returns the entries of the directory "." in fsys.
//
// The sequence is lazy and can only be ranged over once. Nothing is yielded
// if fsys is nil, "." cannot be opened, or it does not support ReadDir.
// Entries the directory reader fails on are dropped, as are names that are
// not valid UTF-8. Reading continues past a failed batch, and stops after
// maxStalledReads consecutive failures that return no entries. The directory
// is closed when the sequence ends or the caller stops early.
//
// debugf may be nil.
func Entries(fsys fs.FS, debugf func(string, ...any)) iter.Seq[Entry] {
	logf := func(format string, args ...any) {
		if debugf != nil {
			debugf(format, args...)
		}
	}

	return func(yield func(Entry) bool) {
		if fsys == nil {
			return
		}

		f, err := fsys.Open(".")
		if err != nil {
			logf("probe(root): open: %v", err)

			return
		}

		defer func() { _ = f.Close() }()

		dir, ok := f.(fs.ReadDirFile)
		if !ok {
			logf("probe(root): %T does not support ReadDir", f)

			return
		}

		stalled := 0

		for {
			batch, err := dir.ReadDir(readDirBatch)

			for _, de := range batch {
				name := de.Name()
				if !utf8.ValidString(name) {
					logf("probe(root): skipping entry with invalid UTF-8 name %q", name)

					continue
				}

				if !yield(Entry{Name: name, IsDir: de.IsDir()}) {
					return
				}
			}

			if err == nil {
				if len(batch) == 0 {
					// A ReadDir(n > 0) that returns nothing must report io.EOF;
					// treat a reader that does not as exhausted.
					return
				}

				continue
			}

			if errors.Is(err, io.EOF) {
				return
			}

			logf("probe(root): read: %v", err)

			if len(batch) > 0 {
				stalled = 0

				continue
			}

			stalled++
			if stalled >= maxStalledReads {
				return
			}
		}
	}
}

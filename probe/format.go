package probe

import "io"

// Section headers. Each is followed by a single space before a value, except
// Env, whose values are on their own lines.
const (
	headerDir  = "Dir:"
	headerArgs = "Args:"
	headerEnv  = "Env:"
	headerRoot = "Root:"
)

type stringWriter interface {
	io.Writer
	io.StringWriter
	io.ByteWriter
}

func writeDir(w stringWriter, dir string) {
	_, _ = w.WriteString(headerDir + " " + dir + "\n")
}

func writeArgs(w stringWriter, args []string) {
	_, _ = w.WriteString(headerArgs)

	for _, arg := range args {
		_ = w.WriteByte(' ')
		_, _ = w.WriteString(arg)
	}

	_ = w.WriteByte('\n')
}

func writeEnv(w stringWriter, env []string) {
	_, _ = w.WriteString(headerEnv + "\n")

	for _, kv := range env {
		_ = w.WriteByte(' ')
		_, _ = w.WriteString(kv)
		_ = w.WriteByte('\n')
	}

	_ = w.WriteByte('\n')
}

func writeEntry(w stringWriter, entry Entry) {
	_ = w.WriteByte(' ')
	_, _ = w.WriteString(entry.String())
}

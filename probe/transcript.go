package probe

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrMalformedTranscript is returned by Parse when the input does not follow
// the report format.
var ErrMalformedTranscript = errors.New("malformed transcript")

// Transcript is the structured form of one report.
//
// Args and Root entries are separated by single spaces in the report, so an
// argument or entry name containing a space does not survive Parse. Env
// values may contain newlines, except for an empty line or a line that
// itself looks like " KEY=VALUE".
type Transcript struct {
	Dir  string
	Args []string
	// Env holds KEY=VALUE entries in report order.
	Env  []string
	Root []Entry
}

// EnvMap returns Env as a map. Later duplicates win.
func (t *Transcript) EnvMap() map[string]string {
	m := make(map[string]string, len(t.Env))

	for _, kv := range t.Env {
		k, v, _ := cutEnv(kv)
		m[k] = v
	}

	return m
}

// RootNames returns Root entries in their printed form ("bin/", "x.txt").
func (t *Transcript) RootNames() []string {
	names := make([]string, 0, len(t.Root))
	for _, e := range t.Root {
		names = append(names, e.String())
	}

	return names
}

// Format writes t in the report format. For a transcript produced by Parse
// the output equals the parsed input with "\n" line endings.
func (t *Transcript) Format(w io.Writer) error {
	bw := bufio.NewWriter(w)

	writeDir(bw, t.Dir)
	writeArgs(bw, t.Args)
	writeEnv(bw, t.Env)

	_, _ = bw.WriteString(headerRoot)
	for _, e := range t.Root {
		writeEntry(bw, e)
	}

	_ = bw.WriteByte('\n')

	err := bw.Flush()
	if err != nil {
		return fmt.Errorf("writing transcript: %w", err)
	}

	return nil
}

// Parse reads a report. Both "\n" and "\r\n" line endings are accepted; a
// missing final newline is tolerated.
func Parse(r io.Reader) (Transcript, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Transcript{}, fmt.Errorf("reading transcript: %w", err)
	}

	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	lines := strings.Split(text, "\n")

	p := parser{lines: lines}

	var t Transcript

	t.Dir, err = p.valueLine(headerDir)
	if err != nil {
		return Transcript{}, err
	}

	t.Args, err = p.listLine(headerArgs)
	if err != nil {
		return Transcript{}, err
	}

	t.Env, err = p.envBlock()
	if err != nil {
		return Transcript{}, err
	}

	names, err := p.listLine(headerRoot)
	if err != nil {
		return Transcript{}, err
	}

	for _, name := range names {
		t.Root = append(t.Root, ParseEntry(name))
	}

	if p.pos < len(p.lines) {
		p.pos++

		return Transcript{}, p.errorf("end of transcript")
	}

	return t, nil
}

type parser struct {
	lines []string
	pos   int
}

func (p *parser) next(want string) (string, error) {
	if p.pos >= len(p.lines) {
		return "", fmt.Errorf("%w: line %d: expected %s, got end of input", ErrMalformedTranscript, p.pos+1, want)
	}

	line := p.lines[p.pos]
	p.pos++

	return line, nil
}

func (p *parser) errorf(want string) error {
	return fmt.Errorf("%w: line %d: expected %s, got %q", ErrMalformedTranscript, p.pos, want, p.lines[p.pos-1])
}

// valueLine reads "<header> <value>". "<header>" alone is an empty value.
func (p *parser) valueLine(header string) (string, error) {
	line, err := p.next(header + " line")
	if err != nil {
		return "", err
	}

	rest, ok := strings.CutPrefix(line, header)
	if !ok {
		return "", p.errorf(header + " line")
	}

	if rest == "" {
		return "", nil
	}

	value, ok := strings.CutPrefix(rest, " ")
	if !ok {
		return "", p.errorf(header + " line")
	}

	return value, nil
}

// listLine reads "<header>" followed by zero or more " <item>".
func (p *parser) listLine(header string) ([]string, error) {
	line, err := p.next(header + " line")
	if err != nil {
		return nil, err
	}

	rest, ok := strings.CutPrefix(line, header)
	if !ok {
		return nil, p.errorf(header + " line")
	}

	if rest == "" {
		return nil, nil
	}

	rest, ok = strings.CutPrefix(rest, " ")
	if !ok {
		return nil, p.errorf(header + " line")
	}

	return strings.Split(rest, " "), nil
}

// envBlock reads "Env:", the " KEY=VALUE" lines and the closing blank line.
// A value may span lines: a non-blank line that is not a new " KEY=VALUE"
// entry continues the previous value.
func (p *parser) envBlock() ([]string, error) {
	line, err := p.next(headerEnv + " line")
	if err != nil {
		return nil, err
	}

	if line != headerEnv {
		return nil, p.errorf(headerEnv + " line")
	}

	var env []string

	for {
		line, err = p.next("environment entry or blank line")
		if err != nil {
			return nil, err
		}

		if line == "" {
			return env, nil
		}

		if kv, ok := strings.CutPrefix(line, " "); ok {
			if _, _, isEntry := cutEnv(kv); isEntry {
				env = append(env, kv)

				continue
			}
		}

		if len(env) == 0 {
			return nil, p.errorf("\" KEY=VALUE\" environment entry")
		}

		env[len(env)-1] += "\n" + line
	}
}

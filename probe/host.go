package probe

import (
	"io/fs"
	"os"
)

// OSHost returns a Host backed by the current process.
//
// The root is os.DirFS("/"). Getwd asks the kernel for the working directory
// where the platform supports it, so a stale or forged $PWD is not reported.
func OSHost() Host {
	return osHost{}
}

type osHost struct{}

func (osHost) Getwd() (string, error) { return getwd() }

func (osHost) Args() []string { return os.Args }

func (osHost) Environ() []string { return os.Environ() }

func (osHost) Root() fs.FS { return os.DirFS("/") }

// StaticHost is a Host with fixed answers.
//
// If WorkDirErr is set, Getwd returns it instead of WorkDir. A nil RootFS
// behaves like a root that cannot be opened.
type StaticHost struct {
	WorkDir    string
	WorkDirErr error
	Argv       []string
	Env        []string
	RootFS     fs.FS
}

// Getwd implements Host.
func (h *StaticHost) Getwd() (string, error) {
	if h.WorkDirErr != nil {
		return "", h.WorkDirErr
	}

	return h.WorkDir, nil
}

// Args implements Host.
func (h *StaticHost) Args() []string { return h.Argv }

// Environ implements Host.
func (h *StaticHost) Environ() []string { return h.Env }

// Root implements Host.
func (h *StaticHost) Root() fs.FS { return h.RootFS }

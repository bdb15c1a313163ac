//go:build linux || darwin || freebsd || netbsd || openbsd

package probe

import "golang.org/x/sys/unix"

// getwd uses getcwd(2) directly. os.Getwd prefers $PWD when it names the
// same directory, which hides what the sandbox actually set up.
func getwd() (string, error) {
	return unix.Getwd()
}

//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package probe

import "os"

func getwd() (string, error) {
	return os.Getwd()
}

// Command sandbox-probe prints the working directory, arguments, environment
// and root directory listing it observes, in a fixed format meant for golden
// transcript comparison.
//
// It takes no flags and reads no configuration: every argument is echoed,
// never interpreted. It always exits 0.
package main

import (
	"os"

	"github.com/calvinalkan/sandbox-probe/probe"
)

func main() {
	probe.Report(os.Stdout, probe.OSHost())
}

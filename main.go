// nexasim boots a NexaOS kernel instance as an in-process simulation
// and drives it through a scripted syscall trace.
//
// Commands:
//
//	boot     - boot a simulated kernel instance and run the trace
//	version  - print version information
package main

import (
	"fmt"
	"os"

	"nexaos/cmd/nexasim"
)

func main() {
	if err := nexasim.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

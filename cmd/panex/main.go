// Command panex runs and watches several shell commands side by side in
// one split-pane terminal UI.
package main

import (
	"fmt"
	"os"

	"github.com/panex-dev/panex/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

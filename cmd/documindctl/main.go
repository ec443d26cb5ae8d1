// Command documindctl is the operator CLI: bulk import, reconciliation,
// analysis passes and dead-letter requeueing.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(defaultEnv()).Execute(); err != nil {
		os.Exit(1)
	}
}

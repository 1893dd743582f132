// Command filevault encrypts files and keeps their keys in an encrypted key store.
package main

import (
	"fmt"
	"os"

	"github.com/idelchi/filevault/internal/commands"
)

// version is set at build time.
var version = "unknown"

func main() {
	if err := commands.NewRootCommand(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)

		os.Exit(1)
	}
}

// Command logimport parses pilot logbook exports and imports them into a
// local SQLite file or PostgreSQL.
package main

import (
	"fmt"
	"os"

	"github.com/JonMunkholm/logbook/internal/core"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if core.IsUserFacing(err) {
			fmt.Fprintln(os.Stderr, core.FormatUserError(err))
		}
		os.Exit(1)
	}
}

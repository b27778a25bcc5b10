// xtags tags source files through an external tagger process.
// The tagger is any program that reads file paths on stdin and answers each
// with a JSON array of {name, kind, line} objects.
package main

import (
	"fmt"
	"os"

	"github.com/corey/xtags/cmd/xtags/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

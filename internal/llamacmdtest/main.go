// llamafile-cmdtest is a small internal harness for transcript tests.
//
// It provisions a disposable work directory under
// `/tmp/llamafile-transcripts/work-<id>` seeded with fixture files, starts a
// local fixture HTTP server, then runs an arbitrary command inside the work
// directory and returns the command's exit code.
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	tool, err := newToolFromExecutable()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(tool.runCLI(context.Background(), os.Args[1:]))
}

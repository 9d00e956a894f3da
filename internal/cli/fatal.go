package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

var errorPrefix = color.New(color.FgRed, color.Bold).SprintFunc()

// Fatal reports err on stderr and exits with status 1.
func Fatal(err error) {
	fmt.Fprintf(os.Stderr, "%s %v\n", errorPrefix("error:"), err)
	os.Exit(1)
}

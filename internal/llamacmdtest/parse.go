// Argument parsing for the `llamafile-cmdtest` harness.
//
// Supported flags:
//   - `--no-server` (skip the fixture HTTP server; FIXTURE_URL stays unset)
//   - `--config <file>` (copy a config fixture into the work dir)
//   - `--keep` (preserve the work dir for debugging)
//   - `-h/--help`
package main

import (
	"errors"
	"flag"
	"io"
)

type options struct {
	noServer bool
	config   string
	keepWork bool
	help     bool
}

func parseArgs(args []string) (options, []string, error) {
	var opts options

	fs := flag.NewFlagSet("llamafile-cmdtest", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.BoolVar(&opts.noServer, "no-server", false, "")
	fs.StringVar(&opts.config, "config", "", "")
	fs.BoolVar(&opts.keepWork, "keep", false, "")

	fs.BoolVar(&opts.help, "help", false, "")
	fs.BoolVar(&opts.help, "h", false, "")

	if err := fs.Parse(args); err != nil {
		return options{}, nil, err
	}
	if opts.help {
		return opts, nil, nil
	}

	cmd := fs.Args()
	if len(cmd) == 0 {
		return options{}, nil, errors.New("missing command")
	}

	return opts, cmd, nil
}

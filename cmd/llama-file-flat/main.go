package main

import "github.com/brandonbloom/llamafile/internal/cli"

func main() {
	if err := cli.ExecuteFlat(); err != nil {
		cli.Fatal(err)
	}
}

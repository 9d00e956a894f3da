package main

import "github.com/brandonbloom/llamafile/internal/cli"

func main() {
	if err := cli.ExecuteTool(); err != nil {
		cli.Fatal(err)
	}
}

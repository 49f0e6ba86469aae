package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jlrickert/cli-toolkit/toolkit"

	"github.com/jlrickert/ontokit/pkg/cli"
)

func main() {
	ctx := context.Background()

	rt, err := toolkit.NewRuntime()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	code, _ := cli.Run(ctx, rt, os.Args[1:])
	os.Exit(code)
}

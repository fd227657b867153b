package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/Fepozopo/skinsmooth/pkg/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.Run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "skinsmooth: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// Command confab rewrites phrases into other words that sound the same.
//
//	confab say ice cream
//	confab oddities --from TH --to DH
//	confab serve --config confab.yaml
//	confab import-dict --dsn postgres://... cmudict-0.7b
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "confab: %v\n", err)
		return 1
	}
	return 0
}

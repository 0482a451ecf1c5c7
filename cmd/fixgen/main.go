// Command fixgen generates explicit fixgen schemas for tagged struct types
// and checks fixgen configuration files.
//
//	fixgen schema ./models/...
//	fixgen schema --watch ./models
//	fixgen config check fixgen.yaml
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

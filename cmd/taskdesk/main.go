package main

import (
	"context"
	"os"
	"time"

	"taskdesk/cmd/taskdesk/cmd"
	"taskdesk/internal/shutdown"
)

const shutdownTimeout = 5 * time.Second

func main() {
	mgr := shutdown.NewManager()
	mgr.ListenForSignals()
	defer mgr.Stop()

	code := cmd.Execute(os.Args[1:], os.Stdout, os.Stderr, &cmd.Config{
		Context:  mgr.Context(),
		Shutdown: mgr,
	})

	mgr.Shutdown()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	_ = mgr.Wait(ctx)
	cancel()

	os.Exit(code)
}

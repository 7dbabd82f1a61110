package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.opentelemetry.io/otel/baggage"
)

const appVersion = "1.0.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Set global baggage
	m, _ := baggage.NewMember("app.version", appVersion)
	b, _ := baggage.New(m)
	ctx = baggage.ContextWithBaggage(ctx, b)

	cc := newCommandContext()
	root := newRootCommand(cc)
	err := root.ExecuteContext(ctx)
	cc.shutdown(context.WithoutCancel(ctx))
	if err != nil {
		PrintError("Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

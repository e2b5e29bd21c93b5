package main

import (
	"context"
	"os/signal"
	"syscall"

	"food-delivery/internal/app"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	container := app.MustBuildContainer(ctx, app.KindOrder)
	app.NewRunner().MustRun(container)
}

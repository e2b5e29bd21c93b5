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

	container := app.MustBuildContainer(ctx, app.KindDelivery)
	app.NewRunner().MustRun(container)
}

package main

import (
	"github.com/ilindan-dev/notification-gateway/internal/app"
	"go.uber.org/fx"
)

// main is the entry point for the queue worker that dispatches queued notifications.
func main() {
	fx.New(
		app.WorkerModule,
		fx.WithLogger(app.NewFxLogger),
	).Run()
}

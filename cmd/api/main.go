package main

import (
	"github.com/ilindan-dev/notification-gateway/internal/app"
	"go.uber.org/fx"
)

// main is the entry point for the notification API server.
func main() {
	fx.New(
		app.APIModule,
		fx.WithLogger(app.NewFxLogger),
	).Run()
}

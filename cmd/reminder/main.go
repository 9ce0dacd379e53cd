package main

import (
	"go.uber.org/fx"

	"AppointmentReminder/internal/bootstrap"
	"AppointmentReminder/pkg/routes"
)

func main() {
	bootstrap.Loadenv()
	app := fx.New(
		routes.EchoModules,
		fx.WithLogger(bootstrap.FxLogger),
	)

	app.Run()
}

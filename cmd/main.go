package main

import "teampulse/internal/app"

func main() {
	app.InitDefaultLogger()
	app.MustReadEnv()
	app.MustInitApplicationLogger()

	app.MustConnectPostgres()
	defer app.DisconnectPostgres()

	app.InitServices()

	app.StartFeed()
	defer app.StopFeed()

	app.MustStartScheduler()
	defer app.StopScheduler()

	app.MustListenAndServeHTTP()
}

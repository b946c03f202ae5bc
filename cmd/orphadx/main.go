package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/orphadx-io/orphadx/cmd/orphadx/app"
)

func main() {
	app.NewApp().Run()
}

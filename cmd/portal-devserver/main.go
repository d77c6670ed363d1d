package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/kart-io/campus-portal/internal/devserver"
)

func main() {
	devserver.NewApp().Run()
}

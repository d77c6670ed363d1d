package main

import (
	"os"

	_ "go.uber.org/automaxprocs"

	"github.com/kart-io/campus-portal/internal/portalctl"
)

func main() {
	os.Exit(portalctl.Run())
}

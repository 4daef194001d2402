package main

import (
	"os"

	"github.com/RefractoryERP/RefractoryERP/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}

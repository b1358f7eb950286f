package main

import (
	"os"
	_ "time/tzdata"

	"github.com/hitoshi/searchreport/internal/app"
)

func main() {
	if err := app.Run(os.Stderr, os.Args[1:]); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"fmt"
	"os"

	_ "go.uber.org/automaxprocs"

	"github.com/agrolink-io/agrolink/cmd/alink-field-agent/app"
)

func main() {
	if err := app.NewApp("alink-field-agent").Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

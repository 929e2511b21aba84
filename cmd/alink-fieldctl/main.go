package main

import (
	"fmt"
	"os"

	_ "go.uber.org/automaxprocs"

	"github.com/agrolink-io/agrolink/cmd/alink-fieldctl/cmd"
)

func main() {
	if err := cmd.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

package main

import (
	"os"

	"github.com/go-appimage/aimctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

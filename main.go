package main

import (
	"os"

	"github.com/krishnasinghprojects/kpsyche/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

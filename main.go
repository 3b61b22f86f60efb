package main

import (
	"os"

	"github.com/r0cstar09/jobtailor/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

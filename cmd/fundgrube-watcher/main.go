// Package main is the entry point for fundgrube-watcher.
package main

import (
	"os"

	"github.com/donaldgifford/fundgrube-watcher/cmd/fundgrube-watcher/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

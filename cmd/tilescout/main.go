// Package main provides the entry point for the tilescout CLI.
package main

import (
	"os"

	"github.com/solmere/tilescout/cmd/tilescout/cmd"
	scouterr "github.com/solmere/tilescout/internal/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		if scouterr.IsFatal(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

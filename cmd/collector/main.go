// Package main provides the tradelens ingestion CLI.
// It collects Korea Customs Service trade statistics into the local store.
package main

import (
	"os"
)

var (
	// Version is set by build flags
	Version = "dev"
)

func main() {
	if err := getRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

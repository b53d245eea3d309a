// Package main provides the sqldf CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/sqldf/internal/cli"

	_ "github.com/leapstack-labs/sqldf/pkg/adapters/duckdb" // duckdb engine
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

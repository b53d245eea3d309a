// Package adapter provides the engine adapter contract for sqldf.
//
// An adapter wraps one embedded SQL engine (SQLite, DuckDB) behind
// database/sql. Concrete adapter implementations are in pkg/adapters/
// subdirectories and register themselves by name at init time.
//
// Core types (AdapterConfig, Column, Rows) are defined in pkg/core.
// This package re-exports them via type aliases.
package adapter

import (
	"github.com/leapstack-labs/sqldf/pkg/core"
)

type (
	// Adapter is an alias for core.Adapter.
	Adapter = core.Adapter

	// Config is an alias for core.AdapterConfig.
	Config = core.AdapterConfig

	// Rows is an alias for core.Rows.
	Rows = core.Rows
)

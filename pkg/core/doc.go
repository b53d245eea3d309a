// Package core defines the shared language of sqldf.
//
// This package contains:
//   - Data entities (Frame, Column, Mapping)
//   - Service interfaces (Adapter)
//   - Static engine configuration (AdapterConfig, DialectConfig)
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core

// Package datafile loads CSV, TSV, YAML and JSON files into query
// environments.
package datafile

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/sqldf/pkg/sqldf"
)

// Binding is one named value loaded from a data file.
type Binding struct {
	Name   string
	Source string
	Value  any
}

// Bindings keeps loaded values in the order they were declared.
type Bindings []Binding

// Environment returns the bindings as a query environment.
func (b Bindings) Environment() sqldf.Environment {
	env := make(sqldf.Environment, len(b))
	for _, bind := range b {
		env[bind.Name] = bind.Value
	}
	return env
}

// Names returns the binding names in order.
func (b Bindings) Names() []string {
	names := make([]string, len(b))
	for i, bind := range b {
		names[i] = bind.Name
	}
	return names
}

// Add appends bind unless its name is already bound.
func (b *Bindings) Add(bind Binding) error {
	for _, existing := range *b {
		if existing.Name == bind.Name {
			return &DuplicateBindingError{Name: bind.Name, First: existing.Source, Second: bind.Source}
		}
	}
	*b = append(*b, bind)
	return nil
}

// DuplicateBindingError is returned when two files bind the same name.
type DuplicateBindingError struct {
	Name   string
	First  string
	Second string
}

func (e *DuplicateBindingError) Error() string {
	return fmt.Sprintf("binding %q defined by both %s and %s", e.Name, e.First, e.Second)
}

// Load reads every spec concurrently and returns their bindings in argument
// order. A spec is a path, or name=path to choose the binding name. CSV and
// TSV files bind one frame named after the file; YAML and JSON documents bind
// each top-level key, or the whole document when a name is given.
func Load(ctx context.Context, specs []string, logger *slog.Logger) (Bindings, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	results := make([]Bindings, len(specs))
	g, gctx := errgroup.WithContext(ctx)
	for i, spec := range specs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			name, path := splitSpec(spec)
			logger.Debug("loading data file", slog.String("path", path), slog.String("name", name))

			b, err := LoadFile(name, path)
			if err != nil {
				return err
			}
			results[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out Bindings
	for _, bs := range results {
		for _, b := range bs {
			if err := out.Add(b); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// splitSpec separates an optional name= prefix from a path.
func splitSpec(spec string) (name, path string) {
	if before, after, ok := strings.Cut(spec, "="); ok && before != "" && !strings.ContainsAny(before, `/\.`) {
		return before, after
	}
	return "", spec
}

// LoadFile reads one data file. name overrides the default binding name.
func LoadFile(name, path string) (Bindings, error) {
	ext := strings.ToLower(filepath.Ext(path))

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open data file: %w", err)
	}
	defer func() { _ = f.Close() }()

	switch ext {
	case ".csv", ".tsv":
		comma := ','
		if ext == ".tsv" {
			comma = '\t'
		}
		frame, err := ReadDelimited(f, comma)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		return Bindings{{Name: name, Source: path, Value: frame}}, nil

	case ".yaml", ".yml", ".json":
		if name != "" {
			v, err := ReadValue(f)
			if err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", path, err)
			}
			return Bindings{{Name: name, Source: path, Value: v}}, nil
		}
		doc, err := ReadDocument(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		out := make(Bindings, len(doc))
		for i, e := range doc {
			out[i] = Binding{Name: fmt.Sprint(e.Key), Source: path, Value: e.Value}
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported data file %s: expected .csv, .tsv, .yaml, .yml or .json", path)
}

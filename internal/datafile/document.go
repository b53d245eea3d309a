package datafile

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/sqldf/pkg/core"
)

// ReadDocument reads a YAML or JSON document whose top level is a mapping.
// Entries keep document order.
func ReadDocument(r io.Reader) (core.Mapping, error) {
	v, err := ReadValue(r)
	if err != nil {
		return nil, err
	}
	m, ok := v.(core.Mapping)
	if !ok {
		return nil, fmt.Errorf("top level must be a mapping of names to values, got %T", v)
	}
	return m, nil
}

// ReadValue reads a YAML or JSON document into query values:
//
//   - a sequence of mappings becomes a *core.Frame with columns in
//     first-seen key order
//   - any other sequence becomes []any
//   - a mapping becomes a core.Mapping in document order
//   - scalars decode to int, float64, bool, string, time.Time or nil
func ReadValue(r io.Reader) (any, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty document")
		}
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return convertNode(&doc)
}

func convertNode(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return convertNode(n.Content[0])

	case yaml.AliasNode:
		return convertNode(n.Alias)

	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return v, nil

	case yaml.MappingNode:
		m := make(core.Mapping, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			if kn := resolveAlias(n.Content[i]); kn.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping keys must be scalars", kn.Line)
			}
			k, err := convertNode(n.Content[i])
			if err != nil {
				return nil, err
			}
			v, err := convertNode(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			m.Set(k, v)
		}
		return m, nil

	case yaml.SequenceNode:
		items := make([]any, len(n.Content))
		records := len(n.Content) > 0
		for i, c := range n.Content {
			v, err := convertNode(c)
			if err != nil {
				return nil, err
			}
			if _, ok := v.(core.Mapping); !ok {
				records = false
			}
			items[i] = v
		}
		if records {
			return recordsFrame(items), nil
		}
		return items, nil
	}
	return nil, fmt.Errorf("line %d: unsupported YAML node", n.Line)
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

// recordsFrame turns a sequence of mappings into a frame. Keys missing from a
// record are NULL.
func recordsFrame(items []any) *core.Frame {
	var names []string
	index := make(map[string]int)
	for _, it := range items {
		for _, e := range it.(core.Mapping) {
			k := fmt.Sprint(e.Key)
			if _, ok := index[k]; !ok {
				index[k] = len(names)
				names = append(names, k)
			}
		}
	}

	f := core.NewFrame(names...)
	for _, it := range items {
		row := make([]any, len(names))
		for _, e := range it.(core.Mapping) {
			row[index[fmt.Sprint(e.Key)]] = e.Value
		}
		f.Rows = append(f.Rows, row)
	}
	return f
}

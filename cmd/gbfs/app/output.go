package app

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"
)

// Output formats
const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

func isSupportedFormat(format string) bool {
	return slices.Contains([]string{formatTable, formatJSON, formatYAML}, format)
}

// render writes v as JSON or YAML, or as a table built by rows
func render(w io.Writer, format string, v any, header []string, rows func() [][]string) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		node, err := yamlNode(v)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(node); err != nil {
			return err
		}
		return enc.Close()
	default:
		return renderTable(w, header, rows())
	}
}

// yamlNode converts v through its JSON encoding so YAML output uses the GBFS
// field names in wire order
func yamlNode(v any) (*yaml.Node, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode output: %w", err)
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("failed to encode output: %w", err)
	}
	blockStyle(&node)
	return &node, nil
}

func blockStyle(n *yaml.Node) {
	n.Style &^= yaml.FlowStyle | yaml.DoubleQuotedStyle
	for _, child := range n.Content {
		blockStyle(child)
	}
}

func renderTable(w io.Writer, header []string, rows [][]string) error {
	table := tablewriter.NewWriter(w)
	table.Header(cells(header)...)
	for _, row := range rows {
		if err := table.Append(cells(row)...); err != nil {
			return fmt.Errorf("failed to build table: %w", err)
		}
	}
	return table.Render()
}

func cells(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

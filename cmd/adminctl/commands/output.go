package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

// table is the tabular rendering of a result. value is what json and yaml print.
type table struct {
	header []string
	rows   [][]string
	value  any
}

type printer struct {
	w      io.Writer
	format string
}

func (p *printer) print(t table) error {
	switch strings.ToLower(p.format) {
	case outputJSON:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(t.value)
	case outputYAML:
		return p.yaml(t.value)
	case outputTable, "":
		return p.table(t)
	default:
		return fmt.Errorf("unknown output format %q", p.format)
	}
}

// yaml goes through JSON first so keys match the API field names.
func (p *printer) yaml(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return err
	}
	enc := yaml.NewEncoder(p.w)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return err
	}
	return enc.Close()
}

func (p *printer) table(t table) error {
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	if len(t.header) > 0 {
		fmt.Fprintln(tw, strings.Join(t.header, "\t"))
	}
	for _, row := range t.rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

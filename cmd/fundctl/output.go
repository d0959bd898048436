package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/ettle/strcase"
	"gopkg.in/yaml.v3"
)

// table is the plain-text rendering of a result.
type table struct {
	columns []string
	rows    [][]string
}

func (t *table) add(cells ...string) {
	t.rows = append(t.rows, cells)
}

// print writes v as JSON or YAML, or the table built by tbl.
func (rt *runtime) print(v any, tbl func() table) error {
	return render(rt.out, rt.format, v, tbl)
}

func render(out io.Writer, format string, v any, tbl func() table) error {
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		// Round-trip through JSON so YAML keys match the API field names.
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("fundctl: encode output: %w", err)
		}
		var generic any
		if err := json.Unmarshal(raw, &generic); err != nil {
			return fmt.Errorf("fundctl: encode output: %w", err)
		}
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(generic)
	}
	if tbl == nil {
		return render(out, "yaml", v, nil)
	}
	t := tbl()
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	headers := make([]string, len(t.columns))
	for i, c := range t.columns {
		headers[i] = strcase.ToCase(c, strcase.UpperCase, ' ')
	}
	fmt.Fprintln(w, strings.Join(headers, "\t"))
	for _, row := range t.rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	return w.Flush()
}

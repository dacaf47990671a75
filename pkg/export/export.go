// Package export renders tabular week designations into downloadable files.
package export

import "fmt"

// Dataset is a table with an optional grouping column. Rows are ordered as given.
type Dataset struct {
	Title    string
	Subtitle string
	Headers  []string
	Rows     [][]string
	// GroupBy names the header whose value changes start a new block in paged formats.
	GroupBy string
}

// Renderer turns a dataset into file bytes.
type Renderer interface {
	Render(Dataset) ([]byte, error)
	ContentType() string
	Extension() string
}

func (d Dataset) validate() error {
	if len(d.Headers) == 0 {
		return fmt.Errorf("dataset requires at least one header")
	}
	for i, row := range d.Rows {
		if len(row) != len(d.Headers) {
			return fmt.Errorf("row %d has %d cells, want %d", i, len(row), len(d.Headers))
		}
	}
	return nil
}

func (d Dataset) groupIndex() int {
	if d.GroupBy == "" {
		return -1
	}
	for i, h := range d.Headers {
		if h == d.GroupBy {
			return i
		}
	}
	return -1
}

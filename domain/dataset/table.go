package dataset

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"sakilahypo/domain/core"
)

// Kind is the statistical kind of a column
type Kind int

const (
	KindNumeric Kind = iota
	KindCategorical
)

func (k Kind) String() string {
	if k == KindNumeric {
		return "numeric"
	}
	return "categorical"
}

// missingTokens are read as missing values, mirroring common CSV exports
var missingTokens = map[string]bool{
	"":     true,
	"NA":   true,
	"N/A":  true,
	"NaN":  true,
	"nan":  true,
	"null": true,
	"NULL": true,
	"None": true,
}

// IsMissingToken reports whether a raw cell should be read as missing
func IsMissingToken(s string) bool {
	return missingTokens[strings.TrimSpace(s)]
}

// Column is one immutable column. Numeric columns use NaN for missing
// values, categorical columns use "".
type Column struct {
	Name    string
	Kind    Kind
	numbers []float64
	strings []string
}

// Len returns the number of rows in the column
func (c *Column) Len() int {
	if c.Kind == KindNumeric {
		return len(c.numbers)
	}
	return len(c.strings)
}

// IsMissing reports whether row i holds a missing value
func (c *Column) IsMissing(i int) bool {
	if c.Kind == KindNumeric {
		return math.IsNaN(c.numbers[i])
	}
	return c.strings[i] == ""
}

// Float returns row i as a number; categorical columns yield NaN
func (c *Column) Float(i int) float64 {
	if c.Kind == KindNumeric {
		return c.numbers[i]
	}
	return math.NaN()
}

// Value returns row i as a string; numeric cells are formatted without trailing zeros
func (c *Column) Value(i int) string {
	if c.Kind == KindCategorical {
		return c.strings[i]
	}
	v := c.numbers[i]
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Table is a columnar in-memory dataset. Column data is never modified in
// place, so derived tables share column storage.
type Table struct {
	columns []*Column
	index   map[string]int
	rows    int
}

// NewTable creates an empty table with a fixed row count
func NewTable(rows int) *Table {
	return &Table{
		index: make(map[string]int),
		rows:  rows,
	}
}

// FromRecords builds a table from string records, inferring each column's kind.
// A column is numeric when every non-missing cell parses as a float.
func FromRecords(headers []string, records [][]string) (*Table, error) {
	seen := make(map[string]bool, len(headers))
	for _, h := range headers {
		if h == "" {
			return nil, fmt.Errorf("empty column name in header")
		}
		if seen[h] {
			return nil, fmt.Errorf("duplicate column name %q", h)
		}
		seen[h] = true
	}

	t := NewTable(len(records))
	for j, name := range headers {
		raw := make([]string, len(records))
		for i, rec := range records {
			if j < len(rec) {
				raw[i] = strings.TrimSpace(rec[j])
			}
		}

		if numbers, ok := parseNumeric(raw); ok {
			t.addColumn(&Column{Name: name, Kind: KindNumeric, numbers: numbers})
			continue
		}

		values := make([]string, len(raw))
		for i, s := range raw {
			if !IsMissingToken(s) {
				values[i] = s
			}
		}
		t.addColumn(&Column{Name: name, Kind: KindCategorical, strings: values})
	}
	return t, nil
}

func parseNumeric(raw []string) ([]float64, bool) {
	numbers := make([]float64, len(raw))
	for i, s := range raw {
		if IsMissingToken(s) {
			numbers[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, false
		}
		// Inf and Infinity parse but have no usable moments
		if math.IsInf(v, 0) {
			v = math.NaN()
		}
		numbers[i] = v
	}
	return numbers, true
}

func (t *Table) addColumn(c *Column) {
	if idx, ok := t.index[c.Name]; ok {
		t.columns[idx] = c
		return
	}
	t.index[c.Name] = len(t.columns)
	t.columns = append(t.columns, c)
}

// AddNumeric adds or replaces a numeric column
func (t *Table) AddNumeric(name string, values []float64) error {
	if len(values) != t.rows {
		return fmt.Errorf("column %s has %d values, table has %d rows", name, len(values), t.rows)
	}
	t.addColumn(&Column{Name: name, Kind: KindNumeric, numbers: values})
	return nil
}

// AddCategorical adds or replaces a categorical column
func (t *Table) AddCategorical(name string, values []string) error {
	if len(values) != t.rows {
		return fmt.Errorf("column %s has %d values, table has %d rows", name, len(values), t.rows)
	}
	t.addColumn(&Column{Name: name, Kind: KindCategorical, strings: values})
	return nil
}

// Rows returns the row count
func (t *Table) Rows() int {
	return t.rows
}

// ColumnNames returns column names in insertion order
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Columns returns the columns in insertion order
func (t *Table) Columns() []*Column {
	out := make([]*Column, len(t.columns))
	copy(out, t.columns)
	return out
}

// Has reports whether every named column exists
func (t *Table) Has(names ...string) bool {
	return len(t.Missing(names...)) == 0
}

// Missing returns the named columns that do not exist
func (t *Table) Missing(names ...string) []string {
	var missing []string
	for _, n := range names {
		if _, ok := t.index[n]; !ok {
			missing = append(missing, n)
		}
	}
	return missing
}

// Column looks up a column by name
func (t *Table) Column(name string) (*Column, error) {
	idx, ok := t.index[name]
	if !ok {
		return nil, core.NewColumnNotFoundError(name)
	}
	return t.columns[idx], nil
}

// Numeric returns a copy of a numeric column
func (t *Table) Numeric(name string) ([]float64, error) {
	c, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	if c.Kind != KindNumeric {
		return nil, core.NewColumnKindError(name, "numeric")
	}
	out := make([]float64, len(c.numbers))
	copy(out, c.numbers)
	return out, nil
}

// Strings returns a column rendered as strings; missing values are ""
func (t *Table) Strings(name string) ([]string, error) {
	c, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	out := make([]string, c.Len())
	for i := range out {
		out[i] = c.Value(i)
	}
	return out, nil
}

// Clone returns a table sharing column storage, safe to add columns to
func (t *Table) Clone() *Table {
	out := NewTable(t.rows)
	for _, c := range t.columns {
		out.addColumn(c)
	}
	return out
}

// DropColumns returns a table without the named columns; unknown names are ignored
func (t *Table) DropColumns(names ...string) *Table {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	out := NewTable(t.rows)
	for _, c := range t.columns {
		if !drop[c.Name] {
			out.addColumn(c)
		}
	}
	return out
}

// Filter returns a table holding only the rows for which keep is true
func (t *Table) Filter(keep func(row int) bool) *Table {
	var rows []int
	for i := 0; i < t.rows; i++ {
		if keep(i) {
			rows = append(rows, i)
		}
	}

	out := NewTable(len(rows))
	for _, c := range t.columns {
		nc := &Column{Name: c.Name, Kind: c.Kind}
		if c.Kind == KindNumeric {
			nc.numbers = make([]float64, len(rows))
			for j, r := range rows {
				nc.numbers[j] = c.numbers[r]
			}
		} else {
			nc.strings = make([]string, len(rows))
			for j, r := range rows {
				nc.strings[j] = c.strings[r]
			}
		}
		out.addColumn(nc)
	}
	return out
}

// DropMissing returns a table without rows where the named column is missing
func (t *Table) DropMissing(name string) (*Table, error) {
	c, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	return t.Filter(func(i int) bool { return !c.IsMissing(i) }), nil
}

// Partition splits a numeric column by whether the key column equals match.
// Rows with a missing value are dropped; rows with a missing key fall into out.
func (t *Table) Partition(valueCol, keyCol, match string) (in, out []float64, err error) {
	values, err := t.Column(valueCol)
	if err != nil {
		return nil, nil, err
	}
	if values.Kind != KindNumeric {
		return nil, nil, core.NewColumnKindError(valueCol, "numeric")
	}
	keys, err := t.Column(keyCol)
	if err != nil {
		return nil, nil, err
	}

	for i := 0; i < t.rows; i++ {
		v := values.numbers[i]
		if math.IsNaN(v) {
			continue
		}
		if !keys.IsMissing(i) && keys.Value(i) == match {
			in = append(in, v)
		} else {
			out = append(out, v)
		}
	}
	return in, out, nil
}

// Group is the numeric values sharing one key
type Group struct {
	Key    string
	Values []float64
}

// GroupNumeric groups a numeric column by a key column. Missing values and
// missing keys are dropped. Groups are sorted by key, numerically when the key
// column is numeric.
func (t *Table) GroupNumeric(valueCol, keyCol string) ([]Group, error) {
	values, err := t.Column(valueCol)
	if err != nil {
		return nil, err
	}
	if values.Kind != KindNumeric {
		return nil, core.NewColumnKindError(valueCol, "numeric")
	}
	keys, err := t.Column(keyCol)
	if err != nil {
		return nil, err
	}

	byKey := make(map[string]*Group)
	var order []*Group
	sortKey := make(map[string]float64)
	for i := 0; i < t.rows; i++ {
		v := values.numbers[i]
		if math.IsNaN(v) || keys.IsMissing(i) {
			continue
		}
		k := keys.Value(i)
		g, ok := byKey[k]
		if !ok {
			g = &Group{Key: k}
			byKey[k] = g
			order = append(order, g)
			sortKey[k] = keys.Float(i)
		}
		g.Values = append(g.Values, v)
	}

	sort.SliceStable(order, func(a, b int) bool {
		if keys.Kind == KindNumeric {
			return sortKey[order[a].Key] < sortKey[order[b].Key]
		}
		return order[a].Key < order[b].Key
	})

	groups := make([]Group, len(order))
	for i, g := range order {
		groups[i] = *g
	}
	return groups, nil
}

// Records renders the table back into a header and string rows
func (t *Table) Records() ([]string, [][]string) {
	headers := t.ColumnNames()
	rows := make([][]string, t.rows)
	for i := range rows {
		row := make([]string, len(t.columns))
		for j, c := range t.columns {
			row[j] = c.Value(i)
		}
		rows[i] = row
	}
	return headers, rows
}

package systems

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Registry CSV column names
const (
	ColumnCountryCode       = "Country Code"
	ColumnName              = "Name"
	ColumnLocation          = "Location"
	ColumnSystemID          = "System ID"
	ColumnURL               = "URL"
	ColumnAutoDiscoveryURL  = "Auto-Discovery URL"
	ColumnValidationReport  = "Validation Report"
	ColumnSupportedVersions = "Supported Versions"
)

var requiredColumns = []string{
	ColumnCountryCode,
	ColumnName,
	ColumnLocation,
	ColumnSystemID,
	ColumnURL,
	ColumnAutoDiscoveryURL,
}

// columns maps each known column to its index in a row; -1 marks an absent optional column
type columns struct {
	countryCode       int
	name              int
	location          int
	systemID          int
	url               int
	autoDiscoveryURL  int
	validationReport  int
	supportedVersions int
}

func newColumns(header []string) (*columns, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}

	for _, name := range requiredColumns {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("missing required column %q", name)
		}
	}

	optional := func(name string) int {
		if i, ok := index[name]; ok {
			return i
		}
		return -1
	}

	return &columns{
		countryCode:       index[ColumnCountryCode],
		name:              index[ColumnName],
		location:          index[ColumnLocation],
		systemID:          index[ColumnSystemID],
		url:               index[ColumnURL],
		autoDiscoveryURL:  index[ColumnAutoDiscoveryURL],
		validationReport:  optional(ColumnValidationReport),
		supportedVersions: optional(ColumnSupportedVersions),
	}, nil
}

// operator maps one row field by field. Cells missing from a short row read as empty.
func (c *columns) operator(row []string) Operator {
	cell := func(i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	return Operator{
		CountryCode:       cell(c.countryCode),
		Name:              cell(c.name),
		Location:          cell(c.location),
		SystemID:          cell(c.systemID),
		URL:               cell(c.url),
		AutoDiscoveryURL:  cell(c.autoDiscoveryURL),
		ValidationReport:  cell(c.validationReport),
		SupportedVersions: splitVersions(cell(c.supportedVersions)),
	}
}

// splitVersions splits a "2.2 ; 2.3" cell
func splitVersions(s string) []string {
	if s == "" {
		return nil
	}
	var versions []string
	for _, v := range strings.Split(s, ";") {
		if v = strings.TrimSpace(v); v != "" {
			versions = append(versions, v)
		}
	}
	return versions
}

// ParseCSV parses a systems registry CSV. The first row must be a header
// naming at least the required columns; columns are matched by name, so
// their order does not matter.
func ParseCSV(r io.Reader) ([]Operator, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &ParseError{Line: 1, Err: errors.New("missing header row")}
	}
	if err != nil {
		return nil, csvParseError(err)
	}

	cols, err := newColumns(header)
	if err != nil {
		return nil, &ParseError{Line: 1, Err: err}
	}

	operators := []Operator{}
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, csvParseError(err)
		}
		operators = append(operators, cols.operator(row))
	}
	return operators, nil
}

func csvParseError(err error) error {
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		return &ParseError{Line: perr.StartLine, Err: perr.Err}
	}
	return &ParseError{Err: err}
}

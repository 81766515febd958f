// Package redcap reads REDCap data-dictionary exports and extracts the
// per-field information used to build PPI survey hierarchies.
package redcap

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Column names of a REDCap data-dictionary export.
const (
	ColFieldName      = "Variable / Field Name"
	ColFieldLabel     = "Field Label"
	ColFieldType      = "Field Type"
	ColSectionHeader  = "Section Header"
	ColChoices        = "Choices, Calculations, OR Slider Labels"
	ColAnnotation     = "Field Annotation"
	ColValidationType = "Text Validation Type OR Show Slider Number"
	ColValidationMin  = "Text Validation Min"
	ColValidationMax  = "Text Validation Max"
)

var requiredColumns = []string{
	ColFieldName,
	ColFieldLabel,
	ColFieldType,
	ColSectionHeader,
	ColChoices,
	ColAnnotation,
	ColValidationType,
	ColValidationMin,
	ColValidationMax,
}

// ErrMissingColumn is returned when an export lacks one of the dictionary columns.
var ErrMissingColumn = errors.New("missing dictionary column")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DictionaryRow is one field of a data-dictionary export.
type DictionaryRow struct {
	FieldName      string
	FieldLabel     string
	FieldType      string
	SectionHeader  string
	Choices        string
	Annotation     string
	ValidationType string
	ValidationMin  string
	ValidationMax  string
}

// ReadDictionary parses a full export. Rows keep their file order.
func ReadDictionary(r io.Reader) ([]DictionaryRow, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read dictionary: %w", err)
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read dictionary header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, name)
		}
	}

	var rows []DictionaryRow
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read dictionary line %d: %w", line, err)
		}
		get := func(name string) string {
			i := index[name]
			if i >= len(record) {
				return ""
			}
			return record[i]
		}
		rows = append(rows, DictionaryRow{
			FieldName:      get(ColFieldName),
			FieldLabel:     get(ColFieldLabel),
			FieldType:      get(ColFieldType),
			SectionHeader:  get(ColSectionHeader),
			Choices:        get(ColChoices),
			Annotation:     get(ColAnnotation),
			ValidationType: get(ColValidationType),
			ValidationMin:  get(ColValidationMin),
			ValidationMax:  get(ColValidationMax),
		})
	}
	return rows, nil
}

// Keep reports whether a field takes part in the survey hierarchy. The record
// id, descriptive text fields and "please specify" follow-ups are skipped.
func Keep(row DictionaryRow) bool {
	if strings.EqualFold(row.FieldName, "record_id") {
		return false
	}
	if strings.EqualFold(row.FieldType, "descriptive") {
		return false
	}
	return !strings.Contains(strings.ToLower(row.FieldLabel), "please specify")
}

// Label returns the field label with line breaks removed.
func (r DictionaryRow) Label() string {
	return strings.ReplaceAll(r.FieldLabel, "\n", "")
}

// NumericBounds returns the validation bounds of an integer or number field
// when both are set.
func (r DictionaryRow) NumericBounds() (lower, upper string, ok bool) {
	switch r.ValidationType {
	case "integer", "number":
	default:
		return "", "", false
	}
	if r.ValidationMin == "" || r.ValidationMax == "" {
		return "", "", false
	}
	return r.ValidationMin, r.ValidationMax, true
}

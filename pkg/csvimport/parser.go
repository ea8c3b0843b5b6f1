// Package csvimport tokenizes uploaded CSV exports into header-keyed records.
//
// The tokenizer is deliberately lenient: lines are split on newlines first, so
// quoted fields cannot span lines, and stray quotes are tolerated instead of
// rejected.
package csvimport

import (
	"fmt"
	"strings"
)

// Column describes one expected column of a schema. A Required column must
// appear in the header; unless AllowEmpty is set, rows with an empty value for
// it are dropped.
type Column struct {
	Key        string
	Headers    []string
	Required   bool
	AllowEmpty bool
}

// Schema lists the columns an import flavor understands.
type Schema struct {
	Name    string
	Columns []Column
}

// Record is one admitted data row keyed by column key.
type Record struct {
	Line   int
	fields map[string]string
}

// Get returns the trimmed field value for key, or "" when it was absent or empty.
func (r Record) Get(key string) string {
	return r.fields[key]
}

// Has reports whether the record carries a non-empty value for key.
func (r Record) Has(key string) bool {
	_, ok := r.fields[key]
	return ok
}

// NewRecord builds a record from explicit values. Empty values are omitted.
func NewRecord(line int, values map[string]string) Record {
	fields := make(map[string]string, len(values))
	for k, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			fields[k] = v
		}
	}
	return Record{Line: line, fields: fields}
}

// MalformedInputError reports a header row missing required columns.
type MalformedInputError struct {
	Schema   string
	Missing  []string
	Expected []string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("invalid %s CSV format: missing required columns %s. Expected columns: %s",
		e.Schema, strings.Join(e.Missing, ", "), strings.Join(e.Expected, ", "))
}

// Parse converts raw CSV text into records for schema, in file order.
// Rows whose required fields are empty are dropped.
func Parse(content string, schema Schema) ([]Record, error) {
	lines := nonBlankLines(content)
	if len(lines) == 0 {
		return []Record{}, nil
	}

	header := SplitLine(lines[0].text)
	positions := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(name)
		if _, seen := positions[key]; !seen {
			positions[key] = i
		}
	}

	index := make(map[string]int, len(schema.Columns))
	var missing []string
	for _, col := range schema.Columns {
		pos, ok := locate(positions, col.Headers)
		if ok {
			index[col.Key] = pos
			continue
		}
		if col.Required {
			missing = append(missing, strings.Join(col.Headers, " or "))
		}
	}
	if len(missing) > 0 {
		return nil, &MalformedInputError{Schema: schema.Name, Missing: missing, Expected: schema.ExpectedHeaders()}
	}

	records := make([]Record, 0, len(lines)-1)
rows:
	for _, line := range lines[1:] {
		values := SplitLine(line.text)
		fields := make(map[string]string, len(index))
		for _, col := range schema.Columns {
			pos, ok := index[col.Key]
			value := ""
			if ok && pos < len(values) {
				value = values[pos]
			}
			if value == "" {
				if col.Required && !col.AllowEmpty {
					continue rows
				}
				continue
			}
			fields[col.Key] = value
		}
		records = append(records, Record{Line: line.number, fields: fields})
	}
	return records, nil
}

// ExpectedHeaders returns the primary header of every column, optional ones bracketed.
func (s Schema) ExpectedHeaders() []string {
	headers := make([]string, 0, len(s.Columns))
	for _, col := range s.Columns {
		name := strings.Join(col.Headers, "|")
		if !col.Required {
			name = "[" + name + "]"
		}
		headers = append(headers, name)
	}
	return headers
}

// TemplateHeaders returns the primary header of every column, for blank templates.
func (s Schema) TemplateHeaders() []string {
	headers := make([]string, 0, len(s.Columns))
	for _, col := range s.Columns {
		headers = append(headers, col.Headers[0])
	}
	return headers
}

func locate(positions map[string]int, headers []string) (int, bool) {
	for _, h := range headers {
		if pos, ok := positions[strings.ToLower(h)]; ok {
			return pos, true
		}
	}
	return 0, false
}

type sourceLine struct {
	number int
	text   string
}

func nonBlankLines(content string) []sourceLine {
	raw := strings.Split(content, "\n")
	lines := make([]sourceLine, 0, len(raw))
	for i, text := range raw {
		text = strings.TrimSuffix(text, "\r")
		if i == 0 {
			text = strings.TrimPrefix(text, "\ufeff")
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		lines = append(lines, sourceLine{number: i + 1, text: text})
	}
	return lines
}

// SplitLine splits a single CSV line on commas outside double quotes.
// A doubled quote inside a quoted field yields a literal quote.
func SplitLine(line string) []string {
	var (
		fields  []string
		current strings.Builder
		quoted  bool
	)
	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch {
		case ch == '"' && quoted && i+1 < len(runes) && runes[i+1] == '"':
			current.WriteRune('"')
			i++
		case ch == '"':
			quoted = !quoted
		case ch == ',' && !quoted:
			fields = append(fields, cleanField(current.String()))
			current.Reset()
		default:
			current.WriteRune(ch)
		}
	}
	fields = append(fields, cleanField(current.String()))
	return fields
}

// cleanField trims whitespace; the surrounding quotes were consumed while splitting.
func cleanField(value string) string {
	return strings.TrimSpace(value)
}

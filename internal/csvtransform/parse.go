package csvtransform

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const dateLayout = "2006-01-02"

var (
	numericPattern = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
	datePattern    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// ParseResult holds the parsed header row, typed rows and any rows skipped.
// Lines[i] is the spreadsheet line Rows[i] started on.
type ParseResult struct {
	Headers  []string
	Rows     []Row
	Lines    []int
	Warnings []string
}

// LineNumber returns the source line of row i. Without recorded lines the
// rows are taken to follow the header directly, so row 0 is line 2.
func LineNumber(lines []int, i int) int {
	if i < len(lines) {
		return lines[i]
	}
	return i + 2
}

func (p *ParseResult) add(row Row, line int) {
	p.Rows = append(p.Rows, row)
	p.Lines = append(p.Lines, line)
}

// ParseFile reads CSV from r, dropping a leading UTF-8 byte order mark
func ParseFile(r io.Reader) (*ParseResult, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	data, err := io.ReadAll(decoded)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	return ParseText(string(data))
}

// ParseText parses CSV text. The first non-blank record is the header row.
// Records whose field count differs from the header are skipped with a warning.
func ParseText(text string) (*ParseResult, error) {
	text = strings.TrimPrefix(text, "\ufeff")

	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	result := &ParseResult{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse csv: %w", err)
		}
		if isBlank(record) {
			continue
		}

		line, _ := reader.FieldPos(0)
		if result.Headers == nil {
			result.Headers = make([]string, len(record))
			for i, h := range record {
				result.Headers[i] = strings.TrimSpace(h)
			}
			continue
		}

		if len(record) != len(result.Headers) {
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"Line %d: expected %d fields but found %d, row skipped", line, len(result.Headers), len(record)))
			continue
		}
		result.add(toRow(result.Headers, record), line)
	}
	return result, nil
}

// ParseXLSX reads the first sheet of a workbook with the same rules as ParseText
func ParseXLSX(r io.Reader) (*ParseResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return &ParseResult{}, nil
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}

	result := &ParseResult{}
	for i, record := range records {
		if isBlank(record) {
			continue
		}
		if result.Headers == nil {
			result.Headers = make([]string, len(record))
			for j, h := range record {
				result.Headers[j] = strings.TrimSpace(h)
			}
			continue
		}
		// GetRows trims trailing empty cells
		if len(record) < len(result.Headers) {
			record = append(record, make([]string, len(result.Headers)-len(record))...)
		}
		if len(record) != len(result.Headers) {
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"Line %d: expected %d fields but found %d, row skipped", i+1, len(result.Headers), len(record)))
			continue
		}
		result.add(toRow(result.Headers, record), i+1)
	}
	return result, nil
}

// IsXLSX reports whether data starts with the zip signature used by xlsx files
func IsXLSX(data []byte) bool {
	return bytes.HasPrefix(data, []byte("PK\x03\x04"))
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func toRow(headers, record []string) Row {
	row := make(Row, len(headers))
	for i, h := range headers {
		row[h] = Coerce(h, record[i])
	}
	return row
}

// Coerce converts a raw cell to a typed value: empty to nil, ';' lists to
// []string, numbers to float64 unless the header names a phone. Anything else,
// dates included, stays a trimmed string.
func Coerce(header, raw string) interface{} {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil
	}

	if strings.Contains(value, ";") {
		var parts []string
		for _, p := range strings.Split(value, ";") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		return parts
	}

	lower := strings.ToLower(header)
	if numericPattern.MatchString(value) && !strings.Contains(lower, "phone") {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}

	return value
}

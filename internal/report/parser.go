package report

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sellerkit/inventory-backend/internal/domain"
)

var (
	ErrEmptyFile         = errors.New("report file is empty")
	ErrUnsupportedFormat = errors.New("unsupported report format")
)

// Row is one parsed data row: its 1-based index among data rows and the
// coerced payload.
type Row struct {
	Index   int
	Payload domain.RowPayload
}

// Result is the outcome of parsing one report file. RowErrors are advisory;
// rows listed there were skipped but never abort the parse.
type Result struct {
	Header    []string
	Rows      []Row
	RowErrors domain.RowErrorList
}

// DelimiterFor returns the cell delimiter implied by the file extension.
// Tab-separated .txt is the Amazon report default, .csv is comma-separated.
func DelimiterFor(filename string) (rune, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".tsv":
		return '\t', nil
	case ".csv":
		return ',', nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

// Parse reads a delimited report. The first record is the header; every
// following non-empty record becomes a Row. A row missing its seller SKU is
// recorded as a row error and skipped. Cell values are coerced per the field
// table; an empty or malformed optional cell coerces to null rather than
// failing the row.
func Parse(contents []byte, delimiter rune) (*Result, error) {
	reader := csv.NewReader(bytes.NewReader(contents))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	rawHeader, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyFile
		}
		return nil, fmt.Errorf("reading header: %w", err)
	}

	header := make([]string, len(rawHeader))
	for i, h := range rawHeader {
		header[i] = NormalizeHeader(h)
	}

	result := &Result{Header: header}
	index := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row: %w", err)
		}
		if isRecordEmpty(record) {
			continue
		}
		index++

		payload := coerceRecord(header, record)
		if payload.Get(domain.SKUField).IsNull() {
			result.RowErrors = append(result.RowErrors, domain.RowError{
				RowIndex: index,
				Message:  "missing seller-sku",
			})
		}
		result.Rows = append(result.Rows, Row{Index: index, Payload: payload})
	}

	if len(result.Rows) == 0 && len(result.RowErrors) == 0 {
		return nil, ErrEmptyFile
	}
	return result, nil
}

// CountDataRows estimates the number of data rows in raw file contents by
// counting newlines, excluding the header line. Used for an early total_rows
// estimate before the worker parses the file.
func CountDataRows(contents []byte) int {
	if len(contents) == 0 {
		return 0
	}
	lines := 0
	for _, line := range bytes.Split(contents, []byte{'\n'}) {
		if len(bytes.TrimSpace(line)) > 0 {
			lines++
		}
	}
	if lines <= 1 {
		return 0
	}
	return lines - 1
}

func coerceRecord(header []string, record []string) domain.RowPayload {
	payload := make(domain.RowPayload, len(header))
	for i, field := range header {
		if field == "" {
			continue
		}
		raw := ""
		if i < len(record) {
			raw = strings.TrimSpace(record[i])
		}
		value := coerceCell(field, raw)
		if value.IsNull() {
			continue
		}
		payload[field] = value
	}
	return payload
}

func coerceCell(field, raw string) domain.FieldValue {
	if raw == "" {
		return domain.NullValue()
	}
	switch {
	case floatFields[field]:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return domain.NullValue()
		}
		return domain.NumberValue(f)
	case intFields[field]:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return domain.NumberValue(0)
		}
		return domain.NumberValue(float64(n))
	case boolFields[field]:
		if isTrueToken(raw) {
			return domain.BoolValue(true)
		}
		if isFalseToken(raw) {
			return domain.BoolValue(false)
		}
		return domain.NullValue()
	default:
		return domain.StringValue(raw)
	}
}

func isRecordEmpty(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	textunicode "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	zipMagic          = []byte("PK\x03\x04")
	headerSeparators  = regexp.MustCompile(`[\s\-]+`)
	headerDisallowed  = regexp.MustCompile(`[^a-z0-9_]`)
	headerUnderscores = regexp.MustCompile(`_+`)
)

type DecodeOptions struct {
	// MaxRows caps the number of data rows; zero means unlimited.
	MaxRows int
}

// sourceRecord is one physical record with its 1-based line number.
type sourceRecord struct {
	line  int
	cells []string
}

// Decode reads the first worksheet of an xlsx workbook, or a CSV document,
// into normalized headers and non-blank records.
func Decode(data []byte, opts DecodeOptions) (ParsedSheet, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return ParsedSheet{}, badInput("file is empty")
	}

	var (
		records []sourceRecord
		err     error
	)
	if bytes.HasPrefix(data, zipMagic) {
		records, err = readWorkbook(data)
	} else {
		records, err = readCSV(data)
	}
	if err != nil {
		return ParsedSheet{}, err
	}
	if len(records) == 0 {
		return ParsedSheet{}, badInput("header row is empty")
	}

	headers := make([]string, len(records[0].cells))
	seen := map[string]struct{}{}
	ordered := make([]string, 0, len(headers))
	for i, cell := range records[0].cells {
		key := NormalizeHeader(cell)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		headers[i] = key
		ordered = append(ordered, key)
	}
	if len(ordered) == 0 {
		return ParsedSheet{}, badInput("header row is empty")
	}

	rows := make([]ParsedRow, 0, len(records)-1)
	for _, record := range records[1:] {
		raw := make(map[string]string, len(ordered))
		for _, key := range ordered {
			raw[key] = ""
		}
		meaningful := false
		for i, cell := range record.cells {
			if i >= len(headers) || headers[i] == "" {
				continue
			}
			value := strings.TrimSpace(cell)
			if value != "" {
				meaningful = true
			}
			raw[headers[i]] = value
		}
		if !meaningful {
			continue
		}
		rows = append(rows, ParsedRow{Row: record.line, Raw: raw})
	}

	if len(rows) == 0 {
		return ParsedSheet{}, badInput("file has no data rows")
	}
	if opts.MaxRows > 0 && len(rows) > opts.MaxRows {
		return ParsedSheet{}, badInputWithDetails(map[string]any{"maxRows": opts.MaxRows}, "file has %d data rows, the limit is %d", len(rows), opts.MaxRows)
	}
	return ParsedSheet{Headers: ordered, Rows: rows}, nil
}

// NormalizeHeader lowercases a header cell and reduces it to [a-z0-9_].
func NormalizeHeader(raw string) string {
	value := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(raw, "\ufeff")))
	value = headerSeparators.ReplaceAllString(value, "_")
	value = headerDisallowed.ReplaceAllString(value, "")
	value = headerUnderscores.ReplaceAllString(value, "_")
	return strings.Trim(value, "_")
}

func readWorkbook(data []byte) ([]sourceRecord, error) {
	book, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, badInput("file is not a readable xlsx workbook")
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, badInput("workbook has no worksheet")
	}
	rows, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read worksheet %q: %w", sheets[0], err)
	}

	records := make([]sourceRecord, 0, len(rows))
	for i, cells := range rows {
		if len(records) == 0 && isBlank(cells) {
			continue
		}
		records = append(records, sourceRecord{line: i + 1, cells: cells})
	}
	return records, nil
}

// readCSV honours a UTF-8 or UTF-16 byte order mark and otherwise falls back
// to Windows-1252 for files that are not valid UTF-8.
func readCSV(data []byte) ([]sourceRecord, error) {
	var fallback *encoding.Decoder
	if utf8.Valid(data) {
		fallback = textunicode.UTF8.NewDecoder()
	} else {
		fallback = charmap.Windows1252.NewDecoder()
	}
	source := transform.NewReader(bytes.NewReader(data), textunicode.BOMOverride(fallback))

	reader := csv.NewReader(source)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records := make([]sourceRecord, 0, 1024)
	for {
		cells, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, badInput("CSV parsing failed: %v", err)
		}
		if len(records) == 0 && isBlank(cells) {
			continue
		}
		line, _ := reader.FieldPos(0)
		records = append(records, sourceRecord{line: line, cells: cells})
	}
	return records, nil
}

func isBlank(cells []string) bool {
	for _, cell := range cells {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

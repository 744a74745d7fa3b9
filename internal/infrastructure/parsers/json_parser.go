package parsers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// JSONParser parses JSON documents holding an array of objects or a single object
type JSONParser struct {
	config *ParserConfig
}

// NewJSONParser creates a new JSON parser
func NewJSONParser(config *ParserConfig) *JSONParser {
	if config == nil {
		config = DefaultParserConfig()
	}
	return &JSONParser{
		config: config,
	}
}

// Parse reads and parses a JSON file from disk
func (p *JSONParser) Parse(ctx context.Context, filePath string) (*ParseResult, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open JSON file: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if err := checkSize(stat.Size(), p.config.MaxFileSize); err != nil {
		return nil, err
	}

	return p.ParseStream(ctx, file)
}

// ParseStream reads and parses JSON data from an io.Reader
func (p *JSONParser) ParseStream(ctx context.Context, reader io.Reader) (*ParseResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read JSON: %w", err)
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	// Peek at the first token to determine structure
	token, err := decoder.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to read JSON: %w", err)
	}

	var objects []map[string]interface{}
	if delim, ok := token.(json.Delim); ok && delim == '[' {
		for decoder.More() {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}

			var obj map[string]interface{}
			if err := decoder.Decode(&obj); err != nil {
				return nil, fmt.Errorf("failed to decode JSON record: %w", err)
			}
			objects = append(objects, obj)
		}

		if _, err := decoder.Token(); err != nil {
			return nil, fmt.Errorf("failed to read closing bracket: %w", err)
		}
	} else {
		// Single object: decode again from the start
		decoder = json.NewDecoder(bytes.NewReader(data))
		decoder.UseNumber()

		var obj map[string]interface{}
		if err := decoder.Decode(&obj); err != nil {
			return nil, fmt.Errorf("failed to decode JSON object: %w", err)
		}
		objects = []map[string]interface{}{obj}
	}

	result := &ParseResult{
		Rows:   make([]Row, 0, len(objects)),
		Format: "JSON",
	}
	columns := newColumnSet()
	for _, obj := range objects {
		result.TotalRows++
		if p.config.SkipEmptyRows && len(obj) == 0 {
			result.SkippedRows++
			continue
		}
		row := stringifyObject(obj, p.config.TrimWhitespace)
		columns.addRow(row)
		result.Rows = append(result.Rows, row)
	}
	result.Columns = columns.names

	return result, nil
}

// SupportedFormats returns the file extensions this parser supports
func (p *JSONParser) SupportedFormats() []string {
	return []string{".json"}
}

// columnSet collects field names in first-seen order. Keys of one object
// are added sorted, since JSON objects carry no field order once decoded.
type columnSet struct {
	seen  map[string]bool
	names []string
}

func newColumnSet() *columnSet {
	return &columnSet{seen: make(map[string]bool)}
}

func (c *columnSet) addRow(row Row) {
	keys := make([]string, 0, len(row))
	for k := range row {
		if !c.seen[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		c.seen[k] = true
		c.names = append(c.names, k)
	}
}

func stringifyObject(obj map[string]interface{}, trim bool) Row {
	row := make(Row, len(obj))
	for k, v := range obj {
		s := stringifyValue(v)
		if trim {
			s = strings.TrimSpace(s)
		}
		row[k] = s
	}
	return row
}

// stringifyValue renders a decoded JSON value the way it would appear in a
// CSV cell. Nested arrays and objects are kept as compact JSON.
func stringifyValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		encoded, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(encoded)
	}
}

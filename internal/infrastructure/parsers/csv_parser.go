package parsers

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// CSVParser parses CSV files
type CSVParser struct {
	config *ParserConfig
}

// NewCSVParser creates a new CSV parser
func NewCSVParser(config *ParserConfig) *CSVParser {
	if config == nil {
		config = DefaultParserConfig()
	}
	return &CSVParser{
		config: config,
	}
}

// Parse reads and parses a CSV file from disk
func (p *CSVParser) Parse(ctx context.Context, filePath string) (*ParseResult, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
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

// ParseStream reads and parses CSV data from an io.Reader
func (p *CSVParser) ParseStream(ctx context.Context, reader io.Reader) (*ParseResult, error) {
	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = p.config.TrimWhitespace
	csvReader.FieldsPerRecord = -1 // Allow variable number of fields per record

	// Read header row
	header, err := csvReader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	header = cleanHeader(header, p.config.TrimWhitespace)

	rows := make([]Row, 0, p.config.MaxRowsInMemory)
	totalRows := 0
	skippedRows := 0

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		cells, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// a malformed row invalidates the whole document
			return nil, fmt.Errorf("failed to read CSV row %d: %w", totalRows+1, err)
		}
		totalRows++

		if p.config.SkipEmptyRows && isEmptyRow(cells) {
			skippedRows++
			continue
		}

		rows = append(rows, buildRow(header, cells, p.config.TrimWhitespace))
	}

	return &ParseResult{
		Rows:        rows,
		TotalRows:   totalRows,
		SkippedRows: skippedRows,
		Columns:     header,
		Format:      "CSV",
	}, nil
}

// SupportedFormats returns the file extensions this parser supports
func (p *CSVParser) SupportedFormats() []string {
	return []string{".csv"}
}

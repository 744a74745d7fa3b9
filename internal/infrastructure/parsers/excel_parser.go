package parsers

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"
)

// ExcelParser parses the first sheet of an Excel workbook
type ExcelParser struct {
	config *ParserConfig
}

// NewExcelParser creates a new Excel parser
func NewExcelParser(config *ParserConfig) *ExcelParser {
	if config == nil {
		config = DefaultParserConfig()
	}
	return &ExcelParser{
		config: config,
	}
}

// Parse reads and parses an Excel file from disk
func (p *ExcelParser) Parse(ctx context.Context, filePath string) (*ParseResult, error) {
	stat, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if err := checkSize(stat.Size(), p.config.MaxFileSize); err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	return p.parseWorkbook(ctx, f)
}

// ParseStream reads and parses Excel data from an io.Reader
func (p *ExcelParser) ParseStream(ctx context.Context, reader io.Reader) (*ParseResult, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read Excel stream: %w", err)
	}
	defer f.Close()

	return p.parseWorkbook(ctx, f)
}

// parseWorkbook extracts data from the first sheet; its first row is the header
func (p *ExcelParser) parseWorkbook(ctx context.Context, f *excelize.File) (*ParseResult, error) {
	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no sheets found in Excel file")
	}

	sheetRows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows from sheet %s: %w", sheetName, err)
	}

	if len(sheetRows) == 0 {
		return &ParseResult{
			Rows:    []Row{},
			Columns: []string{},
			Format:  "XLSX",
		}, nil
	}

	header := cleanHeader(sheetRows[0], p.config.TrimWhitespace)
	rows := make([]Row, 0, len(sheetRows)-1)
	totalRows := 0
	skippedRows := 0

	for _, cells := range sheetRows[1:] {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
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
		Format:      "XLSX",
	}, nil
}

// SupportedFormats returns the file extensions this parser supports
func (p *ExcelParser) SupportedFormats() []string {
	return []string{".xlsx"}
}

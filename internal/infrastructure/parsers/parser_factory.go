package parsers

import (
	"bytes"
	"context"
	"path"
	"sort"
	"strings"

	apperrors "github.com/HFocko/Dashboard/internal/pkg/errors"
)

// ParserFactory creates the appropriate parser based on file extension
type ParserFactory struct {
	config  *ParserConfig
	parsers map[string]FileParser
}

// NewParserFactory creates a new parser factory with all built-in parsers
func NewParserFactory(config *ParserConfig) *ParserFactory {
	if config == nil {
		config = DefaultParserConfig()
	}

	factory := &ParserFactory{
		config:  config,
		parsers: make(map[string]FileParser),
	}

	// Register built-in parsers
	factory.RegisterParser(NewCSVParser(config))
	factory.RegisterParser(NewExcelParser(config))
	factory.RegisterParser(NewJSONParser(config))
	factory.RegisterParser(NewJSONLParser(config))

	return factory
}

// RegisterParser registers a custom parser
func (f *ParserFactory) RegisterParser(parser FileParser) {
	for _, ext := range parser.SupportedFormats() {
		f.parsers[normalizeExt(ext)] = parser
	}
}

// GetParser returns the appropriate parser for a file extension
func (f *ParserFactory) GetParser(fileExt string) (FileParser, error) {
	parser, exists := f.parsers[normalizeExt(fileExt)]
	if !exists {
		return nil, apperrors.UnsupportedFormat(fileExt).
			WithDetails("supported", f.SupportedFormats())
	}
	return parser, nil
}

// GetParserForHandle returns the parser for a local path or s3:// handle
func (f *ParserFactory) GetParserForHandle(handle string) (FileParser, error) {
	return f.GetParser(path.Ext(handle))
}

// ParseFile selects a parser by extension and parses the file at filePath
func (f *ParserFactory) ParseFile(ctx context.Context, filePath string) (*ParseResult, error) {
	parser, err := f.GetParserForHandle(filePath)
	if err != nil {
		return nil, err
	}
	return parser.Parse(ctx, filePath)
}

// ParseBytes parses an already fetched document, choosing the parser from
// the extension of handle.
func (f *ParserFactory) ParseBytes(ctx context.Context, handle string, data []byte) (*ParseResult, error) {
	parser, err := f.GetParserForHandle(handle)
	if err != nil {
		return nil, err
	}
	if err := checkSize(int64(len(data)), f.config.MaxFileSize); err != nil {
		return nil, err
	}
	return parser.ParseStream(ctx, bytes.NewReader(data))
}

// SupportedFormats returns all supported file extensions, sorted
func (f *ParserFactory) SupportedFormats() []string {
	formats := make([]string, 0, len(f.parsers))
	for ext := range f.parsers {
		formats = append(formats, ext)
	}
	sort.Strings(formats)
	return formats
}

// IsSupported checks if a file extension is supported
func (f *ParserFactory) IsSupported(fileExt string) bool {
	_, exists := f.parsers[normalizeExt(fileExt)]
	return exists
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

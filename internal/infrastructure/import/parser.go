package csvimport

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// Parser reads a header-mapped CSV upload
type Parser struct {
	delimiter rune
	maxRows   int
	headers   []string
	headerMap map[string]int
	line      int
	reader    *csv.Reader
}

// ParserOption configures a Parser
type ParserOption func(*Parser)

// WithDelimiter sets the field delimiter (default is comma)
func WithDelimiter(d rune) ParserOption {
	return func(p *Parser) {
		p.delimiter = d
	}
}

// WithMaxRows caps the number of data rows read; 0 means unlimited
func WithMaxRows(n int) ParserOption {
	return func(p *Parser) {
		p.maxRows = n
	}
}

var headerFolder = cases.Fold()

// NormalizeHeader folds case and maps spaces and dashes to underscores so
// that "Defect Code", "defect-code" and "DEFECT_CODE" all match.
func NormalizeHeader(h string) string {
	h = headerFolder.String(strings.TrimSpace(h))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(h)
}

// NewParser wraps r, strips a UTF-8 BOM and rejects non UTF-8 content
func NewParser(r io.Reader, opts ...ParserOption) (*Parser, error) {
	p := &Parser{delimiter: ',', headerMap: make(map[string]int)}
	for _, opt := range opts {
		opt(p)
	}

	buf := bufio.NewReaderSize(r, 8192)
	head, err := buf.Peek(3)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if len(head) >= 3 && head[0] == 0xEF && head[1] == 0xBB && head[2] == 0xBF {
		_, _ = buf.Discard(3)
	}

	sample, err := buf.Peek(encodingSampleSize)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if len(sample) == 0 {
		return nil, ErrEmptyFile
	}
	if !validUTF8Sample(sample, len(sample) == encodingSampleSize) {
		return nil, ErrInvalidEncoding
	}

	p.reader = csv.NewReader(buf)
	p.reader.Comma = p.delimiter
	p.reader.LazyQuotes = true
	p.reader.TrimLeadingSpace = true
	p.reader.FieldsPerRecord = -1
	return p, nil
}

const encodingSampleSize = 4096

// validUTF8Sample checks the leading bytes of the file. A truncated sample
// may end inside a multi-byte rune, which is not an encoding error.
func validUTF8Sample(b []byte, truncated bool) bool {
	if !truncated {
		return utf8.Valid(b)
	}
	for i := 0; i < utf8.UTFMax && len(b) > 0; i++ {
		if utf8.Valid(b) {
			return true
		}
		b = b[:len(b)-1]
	}
	return false
}

// ParseHeader reads the header row
func (p *Parser) ParseHeader() error {
	record, err := p.reader.Read()
	if errors.Is(err, io.EOF) {
		return ErrMissingHeader
	}
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}

	p.headers = make([]string, len(record))
	for i, h := range record {
		name := NormalizeHeader(h)
		p.headers[i] = name
		if name != "" {
			p.headerMap[name] = i
		}
	}
	if len(p.headerMap) == 0 {
		return ErrMissingHeader
	}
	p.line = 1
	return nil
}

// Headers returns the normalized header names
func (p *Parser) Headers() []string {
	return p.headers
}

// MissingHeaders returns the required headers absent from the file
func (p *Parser) MissingHeaders(required []string) []string {
	var missing []string
	for _, h := range required {
		if _, ok := p.headerMap[h]; !ok {
			missing = append(missing, h)
		}
	}
	return missing
}

// Row is one data row keyed by normalized header
type Row struct {
	Line int
	Data map[string]string
}

// Get returns the trimmed value of column
func (r *Row) Get(column string) string {
	return r.Data[column]
}

// IsEmpty reports whether every value is blank
func (r *Row) IsEmpty() bool {
	for _, v := range r.Data {
		if v != "" {
			return false
		}
	}
	return true
}

// ReadAll reads the remaining data rows, skipping blank lines
func (p *Parser) ReadAll() ([]*Row, error) {
	var rows []*Row
	for {
		record, err := p.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", p.line+1, err)
		}
		p.line, _ = p.reader.FieldPos(0)

		row := &Row{Line: p.line, Data: make(map[string]string, len(p.headerMap))}
		for name, i := range p.headerMap {
			if i < len(record) {
				row.Data[name] = strings.TrimSpace(record[i])
			} else {
				row.Data[name] = ""
			}
		}
		if row.IsEmpty() {
			continue
		}
		rows = append(rows, row)
		if p.maxRows > 0 && len(rows) > p.maxRows {
			return nil, fmt.Errorf("%w: more than %d rows", ErrTooManyRows, p.maxRows)
		}
	}
	if len(rows) == 0 {
		return nil, ErrNoDataRows
	}
	return rows, nil
}

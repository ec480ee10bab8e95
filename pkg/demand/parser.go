package demand

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/jonboulle/clockwork"
)

// HourlyBlockRows is the number of rows in an hourly demand block.
const HourlyBlockRows = 24

// Parser reads one publisher document described by a Format. The document
// is fetched once, on first use, and kept for the life of the Parser; a
// failed fetch is remembered too. Create a new Parser to see fresh data.
//
// A Parser is not safe for concurrent use.
type Parser struct {
	format  Format
	fetcher Fetcher
	clock   clockwork.Clock

	fetched bool
	url     string
	lines   []string
	err     error
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithClock sets the time source that picks the publication day for dated
// source URLs. The default is the real clock.
func WithClock(c clockwork.Clock) ParserOption {
	return func(p *Parser) {
		if c != nil {
			p.clock = c
		}
	}
}

// NewParser returns a Parser for format that downloads through fetcher.
func NewParser(format Format, fetcher Fetcher, opts ...ParserOption) *Parser {
	p := &Parser{format: format, fetcher: fetcher, clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Format returns the descriptor the parser was built with.
func (p *Parser) Format() Format { return p.format }

// URL returns the resolved source URL, or "" before the first fetch.
func (p *Parser) URL() string { return p.url }

// Lines returns the fetched document split into lines.
func (p *Parser) Lines(ctx context.Context) ([]string, error) {
	if err := p.load(ctx); err != nil {
		return nil, err
	}
	return slices.Clone(p.lines), nil
}

// RawText returns the fetched document with lines joined by newlines. It
// reads from the same snapshot as every other accessor.
func (p *Parser) RawText(ctx context.Context) (string, error) {
	if err := p.load(ctx); err != nil {
		return "", err
	}
	if len(p.lines) == 0 {
		return "", nil
	}
	return strings.Join(p.lines, "\n") + "\n", nil
}

// DateText returns the first space-separated token of the first line,
// which publishers use for the document's date and update time.
func (p *Parser) DateText(ctx context.Context) (string, error) {
	line, err := p.line(ctx, 0)
	if err != nil {
		return "", err
	}
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return "", &ParseError{Line: 0, Reason: "empty first line"}
	}
	return tokens[0], nil
}

// PeakDemand returns the day's peak demand.
func (p *Parser) PeakDemand(ctx context.Context) (PeakRecord, error) {
	return p.peak(ctx, KindDemand, p.format.PeakDemandLine)
}

// PeakSupply returns the day's peak supply capacity.
func (p *Parser) PeakSupply(ctx context.Context) (PeakRecord, error) {
	return p.peak(ctx, KindSupply, p.format.PeakSupplyLine)
}

// HourlyDemand returns the 24 hourly samples in line order. ok is false,
// with a nil error, when the format has no hourly block.
func (p *Parser) HourlyDemand(ctx context.Context) (samples []DemandSample, ok bool, err error) {
	if !p.format.HasHourlyDemand() {
		return nil, false, nil
	}
	if err := p.load(ctx); err != nil {
		return nil, true, err
	}

	start := p.format.HourlyDemandStartLine
	want := 4
	if p.format.NewFormatDiffField {
		want = 3
	}
	samples = make([]DemandSample, 0, HourlyBlockRows)
	for i := start; i < start+HourlyBlockRows; i++ {
		fields, err := p.fields(i, want)
		if err != nil {
			return nil, true, err
		}
		yesterday := ""
		if !p.format.NewFormatDiffField {
			yesterday = fields[3]
		}
		s, err := NewDemandSample(fields[0], fields[1], fields[2], yesterday, p.format.FractionalAmounts)
		if err != nil {
			return nil, true, &ParseError{Line: i, Reason: "bad hourly row", Err: err}
		}
		samples = append(samples, s)
	}
	return samples, true, nil
}

// FiveMinuteDemand returns the five-minute samples in document order. The
// block ends at the first row with fewer than three fields, at the end of
// the document, or after FiveMinRowLimit rows, so a block starting at or
// past the end of the document is empty. ok is false, with a nil error,
// when the format has no five-minute block.
func (p *Parser) FiveMinuteDemand(ctx context.Context) (samples []DemandSample, ok bool, err error) {
	if !p.format.HasFiveMinuteDemand() {
		return nil, false, nil
	}
	if err := p.load(ctx); err != nil {
		return nil, true, err
	}

	start := p.format.FiveMinDemandStartLine
	samples = []DemandSample{}
	end := len(p.lines)
	if limit := p.format.FiveMinRowLimit; limit > 0 && start+limit < end {
		end = start + limit
	}

	zero := "0"
	if p.format.FractionalAmounts {
		zero = "0.0"
	}
	for i := start; i < end; i++ {
		fields := splitFields(p.lines[i])
		if len(fields) < 3 {
			break
		}
		amount := fields[2]
		if strings.TrimSpace(amount) == "" {
			amount = zero
		}
		// With an hourly block present the fourth column is a forecast.
		yesterday := ""
		if !p.format.HasHourlyDemand() && len(fields) > 3 {
			yesterday = fields[3]
		}
		s, err := NewDemandSample(fields[0], fields[1], amount, yesterday, p.format.FractionalAmounts)
		if err != nil {
			return nil, true, &ParseError{Line: i, Reason: "bad five-minute row", Err: err}
		}
		samples = append(samples, s)
	}
	return samples, true, nil
}

func (p *Parser) load(ctx context.Context) error {
	if p.fetched {
		return p.err
	}
	p.fetched = true
	p.url = p.format.ResolveURL(p.clock.Now())

	lines, err := p.fetcher.FetchLines(ctx, p.url, p.format.Charset())
	if err != nil {
		var te *TransportError
		if !errors.As(err, &te) {
			err = &TransportError{URL: p.url, Err: err}
		}
		p.err = err
		return err
	}
	p.lines = lines
	return nil
}

func (p *Parser) line(ctx context.Context, i int) (string, error) {
	if err := p.load(ctx); err != nil {
		return "", err
	}
	if i >= len(p.lines) {
		return "", &ParseError{
			Line:   i,
			Reason: fmt.Sprintf("document has only %d lines", len(p.lines)),
		}
	}
	return p.lines[i], nil
}

// fields splits line i and requires at least n fields. The cache must be
// loaded.
func (p *Parser) fields(i, n int) ([]string, error) {
	if i >= len(p.lines) {
		return nil, &ParseError{
			Line:   i,
			Reason: fmt.Sprintf("document has only %d lines", len(p.lines)),
		}
	}
	fields := splitFields(p.lines[i])
	if len(fields) < n {
		return nil, &ParseError{
			Line:   i,
			Reason: fmt.Sprintf("expected %d fields, got %d", n, len(fields)),
		}
	}
	return fields, nil
}

func (p *Parser) peak(ctx context.Context, kind Kind, lineNo int) (PeakRecord, error) {
	if err := p.load(ctx); err != nil {
		return PeakRecord{}, err
	}
	fields, err := p.fields(lineNo, 2)
	if err != nil {
		return PeakRecord{}, err
	}
	rec, err := NewPeakRecord(kind, fields[0], fields[1], p.format.FractionalAmounts)
	if err != nil {
		return PeakRecord{}, &ParseError{Line: lineNo, Reason: "bad peak " + kind.String(), Err: err}
	}
	return rec, nil
}

// splitFields splits a row on commas and drops trailing empty fields, so
// "a,b,," has two fields.
func splitFields(line string) []string {
	fields := strings.Split(line, ",")
	for len(fields) > 0 && strings.TrimSpace(fields[len(fields)-1]) == "" {
		fields = fields[:len(fields)-1]
	}
	return fields
}

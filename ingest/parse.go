package ingest

import (
	"fmt"
	"strings"

	"cardledger/statement"
)

// ParseError reports extractor output in which no statement document could
// be found. Raw carries the full model output for diagnostics; it is
// attached rather than logged because the caller decides how to surface it.
type ParseError struct {
	Raw string
	Err error
}

func (p *ParseError) Error() string {
	return fmt.Sprintf("could not parse extractor output: %v", p.Err)
}

func (p *ParseError) Unwrap() error {
	return p.Err
}

// ParseDocument locates and decodes the JSON statement document in raw
// extractor output. Models routinely wrap the document in prose or markdown
// code fences, so everything outside the outermost braces is discarded. A
// *ParseError carrying the raw output is returned when no document can be
// recovered.
func ParseDocument(raw string) (statement.Document, error) {

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return nil, &ParseError{
			Raw: raw,
			Err: fmt.Errorf("no JSON object found in %d bytes of output", len(raw)),
		}
	}

	doc, err := statement.DecodeDocument([]byte(raw[start : end+1]))
	if err != nil {
		return nil, &ParseError{Raw: raw, Err: err}
	}
	return doc, nil
}

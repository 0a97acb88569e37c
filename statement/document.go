// Package statement models a single credit-card statement as extracted from a
// PDF by the upstream model, and provides the deterministic identity and
// normalization steps of the ingestion pipeline.
//
// A statement arrives as loosely-structured JSON. The model is asked for a
// fixed shape but fields are routinely missing or misplaced, so Document is a
// thin wrapper over a generic map with accessors that default rather than
// fail. Numbers are decoded with json.Number so that currency values never
// pass through binary floating point.
package statement

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Document is the untyped nested statement structure returned by the
// extraction model. Expected top-level keys are "statement_metadata",
// "customer_info", "totals", "transactions", "promotions", "disclosures" and
// (optionally) "contact_support_info".
type Document map[string]any

// DecodeDocument decodes a JSON object into a Document. Numbers are kept as
// json.Number to preserve the exact decimal representation for currency
// normalization.
func DecodeDocument(data []byte) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("document decode error: %w", err)
	}
	return doc, nil
}

// RawJSON serializes the document back to a canonical JSON string, retained
// verbatim on the statement row for audit and debugging.
func (d Document) RawJSON() string {
	b, err := json.Marshal(d)
	if err != nil {
		// Document came from json.Unmarshal so this cannot ordinarily happen.
		return "{}"
	}
	return string(b)
}

// getMap returns the map at key, or an empty map if absent or of the wrong
// type. This mirrors `(doc.get("x") or {})` access in loosely-typed callers.
func getMap(m map[string]any, key string) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	if sub, ok := m[key].(map[string]any); ok {
		return sub
	}
	return map[string]any{}
}

// getList returns the slice at key, or nil if absent.
func getList(m map[string]any, key string) []any {
	if m == nil {
		return nil
	}
	if sub, ok := m[key].([]any); ok {
		return sub
	}
	return nil
}

// getString returns a string pointer for key, or nil if the field is absent
// or not a string. Non-string scalars are not coerced.
func getString(m map[string]any, key string) *string {
	if m == nil {
		return nil
	}
	if s, ok := m[key].(string); ok {
		return &s
	}
	return nil
}

// stringOrEmpty is getString with an empty-string default, used for identity
// derivation where absent fields contribute the empty string.
func stringOrEmpty(m map[string]any, key string) string {
	if s := getString(m, key); s != nil {
		return *s
	}
	return ""
}

// getInt returns an integer pointer for key, handling json.Number decoding.
func getInt(m map[string]any, key string) *int64 {
	if m == nil {
		return nil
	}
	if n, ok := m[key].(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return &i
		}
	}
	return nil
}

// metadata, customerInfo and totals return the standard nested containers,
// each defaulting to an empty map.
func (d Document) metadata() map[string]any     { return getMap(d, "statement_metadata") }
func (d Document) customerInfo() map[string]any { return getMap(d, "customer_info") }
func (d Document) totals() map[string]any       { return getMap(d, "totals") }

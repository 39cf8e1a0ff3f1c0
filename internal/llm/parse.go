package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// parseResponse turns raw model output into a validated Response. Three
// progressively lenient strategies run in order: the whole string, the
// contents of a fenced code block, and the first balanced {...} span.
// The first candidate that parses to an object carrying a "response" key
// wins. Missing optional fields are defaulted; a missing "response" is a
// hard reject, never defaulted.
func parseResponse(raw string) (*Response, error) {
	candidates := []string{raw}
	if fenced := extractFencedBlock(raw); fenced != "" {
		candidates = append(candidates, fenced)
	}
	if span := extractBalancedObject(raw); span != "" {
		candidates = append(candidates, span)
	}

	for _, candidate := range candidates {
		if resp := tryParse(candidate); resp != nil {
			return resp, nil
		}
	}
	return nil, fmt.Errorf("no valid response object in model output")
}

// tryParse parses one candidate and validates the contract. Returns nil on
// any violation.
func tryParse(candidate string) *Response {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(strings.TrimSpace(candidate)), &obj); err != nil {
		return nil
	}
	if _, ok := obj["response"]; !ok {
		return nil
	}

	var resp Response
	if err := json.Unmarshal([]byte(candidate), &resp); err != nil {
		return nil
	}

	if resp.Intent == "" {
		resp.Intent = "unknown"
	}
	if resp.MemoryStore == nil {
		resp.MemoryStore = []MemoryDraft{}
	}
	// An action without both names is as good as no action.
	if resp.Action != nil && (resp.Action.Capability == "" || resp.Action.Action == "") {
		resp.Action = nil
	}
	return &resp
}

// extractFencedBlock returns the contents of the first ``` fence, tolerating
// a language tag on the opening line.
func extractFencedBlock(raw string) string {
	start := strings.Index(raw, "```")
	if start < 0 {
		return ""
	}
	rest := raw[start+3:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		// Drop the language tag line if the fence opened with one.
		head := strings.TrimSpace(rest[:nl])
		if head == "" || !strings.ContainsAny(head, "{}") {
			rest = rest[nl+1:]
		}
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(rest[:end])
}

// extractBalancedObject scans for the first balanced {...} span by brace
// depth, skipping braces inside JSON string values and escaped quotes.
func extractBalancedObject(raw string) string {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		ch := raw[i]
		if escaped {
			escaped = false
			continue
		}
		switch ch {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return raw[start : i+1]
				}
			}
		}
	}
	return ""
}

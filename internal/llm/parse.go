package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Common LLM syntax slips that are safe to repair before a second decode attempt.
var (
	trailingCommaRegex  = regexp.MustCompile(`,\s*([}\]])`)
	missingCommaRegex   = regexp.MustCompile(`("|\d|true|false|null|[}\]])\s*\n\s*("[\w][^"]*"\s*:)`)
	singleQuoteKeyRegex = regexp.MustCompile(`([{,]\s*)'(\w+)'(\s*:)`)
)

// ParseJSONResponse extracts the first JSON value from a model response and decodes it into T.
// Markdown fences and trailing prose are ignored; a repaired copy is tried when the raw text
// does not decode.
func ParseJSONResponse[T any](response string) (T, error) {
	var result T

	cleaned := stripFences(response)
	idx := strings.IndexAny(cleaned, "{[")
	if idx == -1 {
		return result, fmt.Errorf("no JSON found in response")
	}
	body := cleaned[idx:]

	dec := json.NewDecoder(strings.NewReader(body))
	err := dec.Decode(&result)
	if err == nil {
		return result, nil
	}

	repaired := repairJSON(body)
	if repaired != body {
		var second T
		if err2 := json.NewDecoder(strings.NewReader(repaired)).Decode(&second); err2 == nil {
			return second, nil
		}
	}
	return result, fmt.Errorf("parse JSON: %w", err)
}

func repairJSON(input string) string {
	out := escapeControlChars(input)
	out = missingCommaRegex.ReplaceAllString(out, `$1, $2`)
	out = trailingCommaRegex.ReplaceAllString(out, `$1`)
	out = singleQuoteKeyRegex.ReplaceAllString(out, `$1"$2"$3`)
	return closeTruncated(out)
}

// escapeControlChars escapes raw newlines and tabs that models emit inside JSON strings.
func escapeControlChars(input string) string {
	var sb strings.Builder
	sb.Grow(len(input))
	inString, escaped := false, false
	for i := 0; i < len(input); i++ {
		c := input[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString && c == '\n':
			sb.WriteString(`\n`)
			continue
		case inString && c == '\r':
			sb.WriteString(`\r`)
			continue
		case inString && c == '\t':
			sb.WriteString(`\t`)
			continue
		case inString && c < 0x20:
			fmt.Fprintf(&sb, `\u%04x`, c)
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

// closeTruncated balances quotes and brackets of output cut off by a token limit.
func closeTruncated(input string) string {
	var stack []byte
	inString, escaped := false, false
	for i := 0; i < len(input); i++ {
		c := input[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			stack = append(stack, '}')
		case c == '[':
			stack = append(stack, ']')
		case (c == '}' || c == ']') && len(stack) > 0:
			stack = stack[:len(stack)-1]
		}
	}
	if inString {
		input += `"`
	}
	for i := len(stack) - 1; i >= 0; i-- {
		input += string(stack[i])
	}
	return input
}

func stripFences(response string) string {
	response = strings.TrimSpace(response)
	if strings.HasPrefix(response, "```") {
		if nl := strings.IndexByte(response, '\n'); nl != -1 {
			response = response[nl+1:]
		}
	}
	response = strings.TrimSuffix(strings.TrimSpace(response), "```")
	return strings.TrimSpace(response)
}

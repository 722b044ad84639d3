package lineproto

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"journeytrack/ingest/domain"
)

// Decode parses one line-protocol record back into a canonical event.
// It is the encoder's inverse over the tag and field maps: for any
// event the pipeline produced, Decode(Encode(e)) recovers e's tags,
// fields and second-truncated ingestion time.
func Decode(line []byte) (*domain.CanonicalEvent, error) {
	tagsPart, fieldsPart, timePart, err := splitSections(string(line))
	if err != nil {
		return nil, err
	}

	tagTokens := splitUnescaped(tagsPart, ',')
	if len(tagTokens) == 0 || unescapeKey(tagTokens[0]) != Measurement {
		return nil, fmt.Errorf("lineproto: unexpected measurement in %q", tagsPart)
	}
	tags := make(map[string]string, len(tagTokens)-1)
	for _, token := range tagTokens[1:] {
		key, value, err := splitKeyValue(token)
		if err != nil {
			return nil, err
		}
		tags[unescapeKey(key)] = unescapeKey(value)
	}

	fieldTokens := splitFields(fieldsPart)
	fields := make(map[string]any, len(fieldTokens))
	for _, token := range fieldTokens {
		key, value, err := splitKeyValue(token)
		if err != nil {
			return nil, err
		}
		parsed, err := parseFieldValue(value)
		if err != nil {
			return nil, fmt.Errorf("lineproto: field %q: %w", key, err)
		}
		fields[unescapeKey(key)] = parsed
	}

	writeTime, err := strconv.ParseInt(timePart, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("lineproto: bad write-time %q: %w", timePart, err)
	}

	return &domain.CanonicalEvent{
		Type:       domain.EventType(tags[domain.TagEventType]),
		Tags:       tags,
		Fields:     fields,
		ReceivedAt: time.Unix(writeTime, 0).UTC(),
	}, nil
}

// splitSections cuts the line into its tag, field and time sections at
// the unescaped, unquoted space separators.
func splitSections(line string) (tagsPart, fieldsPart, timePart string, err error) {
	firstSpace := indexUnescaped(line, ' ')
	if firstSpace < 0 {
		return "", "", "", fmt.Errorf("lineproto: missing field section in %q", line)
	}
	tagsPart = line[:firstSpace]

	rest := line[firstSpace+1:]
	inQuotes := false
	for i := 0; i < len(rest); i++ {
		switch rest[i] {
		case '\\':
			i++
		case '"':
			inQuotes = !inQuotes
		case ' ':
			if !inQuotes {
				return tagsPart, rest[:i], rest[i+1:], nil
			}
		}
	}
	return "", "", "", fmt.Errorf("lineproto: missing write-time in %q", line)
}

// indexUnescaped finds the first occurrence of sep not preceded by a
// backslash.
func indexUnescaped(s string, sep byte) int {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case sep:
			return i
		}
	}
	return -1
}

// splitUnescaped splits on every unescaped occurrence of sep.
func splitUnescaped(s string, sep byte) []string {
	var parts []string
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case sep:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

// splitFields splits the field section on unescaped commas outside
// quoted string values.
func splitFields(s string) []string {
	var parts []string
	start := 0
	inQuotes := false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			inQuotes = !inQuotes
		case ',':
			if !inQuotes {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

func splitKeyValue(token string) (string, string, error) {
	eq := indexUnescaped(token, '=')
	if eq < 0 {
		return "", "", fmt.Errorf("lineproto: malformed key-value pair %q", token)
	}
	return token[:eq], token[eq+1:], nil
}

func parseFieldValue(value string) (any, error) {
	if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
		return unescapeString(value[1 : len(value)-1]), nil
	}
	if strings.HasSuffix(value, "i") {
		return strconv.ParseInt(strings.TrimSuffix(value, "i"), 10, 64)
	}
	return strconv.ParseFloat(value, 64)
}

// unescapeKey undoes escapeKey. Only the known escape sequences are
// collapsed; a backslash before any other character is literal data
// and passes through untouched.
func unescapeKey(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case ',', ' ', '=', '\\':
				i++
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// unescapeString undoes escapeString, collapsing only `\"` and `\\`.
func unescapeString(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case '"', '\\':
				i++
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

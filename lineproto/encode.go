// Package lineproto serializes canonical journey events into the
// storage backend's text wire format:
//
//	events,<tag>=<v>,... <field>=<v>,... <write-time>
//
// Tags are sorted lexicographically by key, fields follow the fixed
// schema order, and the trailing write-time is the ingestion time in
// epoch seconds. The encoding is deterministic: the same event always
// produces byte-identical output.
package lineproto

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"journeytrack/ingest/domain"
)

// Measurement is the single measurement all journey events land in.
const Measurement = "events"

// Encode turns a validated event into one line-protocol record. It
// fails only on a structurally invalid event (a field missing from the
// schema or carrying a value of the wrong Go type), which the
// validator's guarantee makes unreachable in the normal pipeline.
func Encode(event *domain.CanonicalEvent) (*domain.EncodedRecord, error) {
	if event == nil || len(event.Tags) == 0 {
		return nil, fmt.Errorf("lineproto: event has no tags")
	}

	var b strings.Builder
	b.WriteString(Measurement)

	tagKeys := make([]string, 0, len(event.Tags))
	for k := range event.Tags {
		tagKeys = append(tagKeys, k)
	}
	sort.Strings(tagKeys)
	for _, k := range tagKeys {
		b.WriteByte(',')
		b.WriteString(escapeKey(k))
		b.WriteByte('=')
		b.WriteString(escapeKey(event.Tags[k]))
	}

	b.WriteByte(' ')
	emitted := 0
	for _, name := range domain.FieldOrder() {
		value, ok := event.Fields[name]
		if !ok {
			continue
		}
		spec, known := domain.LookupField(name)
		if !known {
			return nil, fmt.Errorf("lineproto: field %q is not in the schema", name)
		}
		formatted, err := formatField(spec, value)
		if err != nil {
			return nil, err
		}
		if emitted > 0 {
			b.WriteByte(',')
		}
		b.WriteString(escapeKey(name))
		b.WriteByte('=')
		b.WriteString(formatted)
		emitted++
	}
	if emitted != len(event.Fields) {
		return nil, fmt.Errorf("lineproto: event carries %d fields outside the schema order", len(event.Fields)-emitted)
	}

	writeTime := event.ReceivedAt.Unix()
	b.WriteByte(' ')
	b.WriteString(strconv.FormatInt(writeTime, 10))

	return &domain.EncodedRecord{
		Key:       event.UniqueKey(),
		Line:      []byte(b.String()),
		WriteTime: writeTime,
	}, nil
}

func formatField(spec domain.FieldSpec, value any) (string, error) {
	switch spec.Kind {
	case domain.FieldInt:
		n, ok := value.(int64)
		if !ok {
			return "", fmt.Errorf("lineproto: field %q: expected int64, got %T", spec.Name, value)
		}
		return strconv.FormatInt(n, 10) + "i", nil
	case domain.FieldFloat:
		f, ok := value.(float64)
		if !ok {
			return "", fmt.Errorf("lineproto: field %q: expected float64, got %T", spec.Name, value)
		}
		return strconv.FormatFloat(f, 'g', -1, 64), nil
	case domain.FieldString:
		s, ok := value.(string)
		if !ok {
			return "", fmt.Errorf("lineproto: field %q: expected string, got %T", spec.Name, value)
		}
		return `"` + escapeString(s) + `"`, nil
	}
	return "", fmt.Errorf("lineproto: field %q: unsupported kind", spec.Name)
}

// escapeKey protects the wire format's reserved delimiters in tag and
// field keys and tag values. The escape character itself must be
// escaped too: a literal trailing backslash would otherwise swallow
// the separator that follows and merge adjacent tags.
func escapeKey(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ',', ' ', '=', '\\':
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// escapeString protects quotes and backslashes inside a quoted string
// field value.
func escapeString(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"', '\\':
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

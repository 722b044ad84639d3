// Package validations normalizes loosely-typed request payloads into
// canonical journey events, rejecting anything that does not fit the
// tagged-variant schema.
package validations

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"journeytrack/ingest/domain"
)

// ValidateEvent checks a raw payload against the event schema and, on
// success, returns the canonical record. The checks run in a fixed
// order: event_type, required tags, device_type closed set, timestamp,
// then every remaining supplied key. Applicable-but-absent fields are
// simply omitted. The function is pure apart from reading the clock
// the caller passed in via receivedAt.
func ValidateEvent(raw domain.RawEvent, receivedAt time.Time) (*domain.CanonicalEvent, *domain.ValidationError) {
	eventType, verr := eventTypeOf(raw)
	if verr != nil {
		return nil, verr
	}

	tags := map[string]string{domain.TagEventType: string(eventType)}

	for _, key := range domain.RequiredTags {
		value, ok := raw[key]
		if !ok {
			return nil, domain.NewValidationError(domain.ErrMissingTag, key, "required tag is missing")
		}
		s, ok := value.(string)
		if !ok {
			return nil, domain.NewValidationError(domain.ErrInvalidTagValue, key, "tag value must be a string")
		}
		if strings.TrimSpace(s) == "" {
			return nil, domain.NewValidationError(domain.ErrMissingTag, key, "required tag is empty")
		}
		tags[key] = s
	}

	if !domain.DeviceTypes[tags[domain.TagDeviceType]] {
		return nil, domain.NewValidationError(domain.ErrInvalidTagValue, domain.TagDeviceType,
			fmt.Sprintf("%q is not one of desktop, mobile, tablet, other", tags[domain.TagDeviceType]))
	}

	for _, key := range domain.OptionalTags {
		value, ok := raw[key]
		if !ok {
			continue
		}
		s, ok := value.(string)
		if !ok {
			return nil, domain.NewValidationError(domain.ErrInvalidTagValue, key, "tag value must be a string")
		}
		if strings.TrimSpace(s) != "" {
			tags[key] = s
		}
	}

	fields := make(map[string]any)

	tsRaw, ok := raw[domain.FieldTimestamp]
	if !ok {
		return nil, domain.NewValidationError(domain.ErrMissingField, domain.FieldTimestamp, "required field is missing")
	}
	ts, ok := coerceInt(tsRaw)
	if !ok || ts < 0 {
		return nil, domain.NewValidationError(domain.ErrInvalidFieldType, domain.FieldTimestamp, "must be a non-negative epoch-seconds integer")
	}
	fields[domain.FieldTimestamp] = ts

	for key, value := range raw {
		if isTagKey(key) || key == domain.FieldTimestamp {
			continue
		}
		spec, known := domain.LookupField(key)
		if !known || !domain.FieldApplicable(eventType, key) {
			return nil, domain.NewValidationError(domain.ErrFieldNotApplicable, key,
				fmt.Sprintf("field does not apply to event_type %s", eventType))
		}
		typed, verr := coerceField(spec, value)
		if verr != nil {
			return nil, verr
		}
		fields[key] = typed
	}

	return &domain.CanonicalEvent{
		Type:       eventType,
		Tags:       tags,
		Fields:     fields,
		ReceivedAt: receivedAt.UTC(),
	}, nil
}

func eventTypeOf(raw domain.RawEvent) (domain.EventType, *domain.ValidationError) {
	value, ok := raw[domain.TagEventType]
	if !ok {
		return "", domain.NewValidationError(domain.ErrUnknownEventType, domain.TagEventType, "event_type is missing")
	}
	s, ok := value.(string)
	if !ok || !domain.KnownEventType(domain.EventType(s)) {
		return "", domain.NewValidationError(domain.ErrUnknownEventType, domain.TagEventType,
			fmt.Sprintf("unrecognized event_type %v", value))
	}
	return domain.EventType(s), nil
}

func isTagKey(key string) bool {
	switch key {
	case domain.TagEventType, domain.TagContentID, domain.TagUserID,
		domain.TagDeviceType, domain.TagLocation, domain.TagReferralSource:
		return true
	}
	return false
}

// coerceField converts a decoded JSON value into the field's schema
// kind and checks its range constraint.
func coerceField(spec domain.FieldSpec, value any) (any, *domain.ValidationError) {
	switch spec.Kind {
	case domain.FieldInt:
		n, ok := coerceInt(value)
		if !ok {
			return nil, domain.NewValidationError(domain.ErrInvalidFieldType, spec.Name, "must be an integer")
		}
		if spec.InRange != nil && !spec.InRange(float64(n)) {
			return nil, domain.NewValidationError(domain.ErrInvalidFieldType, spec.Name, spec.RangeDesc)
		}
		return n, nil
	case domain.FieldFloat:
		f, ok := coerceFloat(value)
		if !ok {
			return nil, domain.NewValidationError(domain.ErrInvalidFieldType, spec.Name, "must be a number")
		}
		if spec.InRange != nil && !spec.InRange(f) {
			return nil, domain.NewValidationError(domain.ErrInvalidFieldType, spec.Name, spec.RangeDesc)
		}
		return f, nil
	case domain.FieldString:
		s, ok := value.(string)
		if !ok {
			return nil, domain.NewValidationError(domain.ErrInvalidFieldType, spec.Name, "must be a string")
		}
		return s, nil
	}
	return nil, domain.NewValidationError(domain.ErrInvalidFieldType, spec.Name, "unsupported field kind")
}

// coerceInt accepts the integer representations a JSON decode can hand
// us: float64 with an integral value, json.Number, or a native int
// from code constructing RawEvent directly.
func coerceInt(value any) (int64, bool) {
	switch v := value.(type) {
	case float64:
		n := int64(v)
		if float64(n) != v {
			return 0, false
		}
		return n, true
	case int:
		return int64(v), true
	case int64:
		return v, true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func coerceFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

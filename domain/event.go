package domain

import (
	"context"
	"strconv"
	"time"
)

// EventType identifies one customer-journey event variant.
type EventType string

const (
	EventPageview        EventType = "pageview"
	EventInteraction     EventType = "interaction"
	EventTransaction     EventType = "transaction"
	EventButtonClick     EventType = "button_click"
	EventScroll          EventType = "scroll"
	EventFirstRentalView EventType = "first_rental_view"
	EventRental          EventType = "rental"
)

// Tag keys. Tags are the indexed, string-valued dimensions in the storage backend.
const (
	TagEventType      = "event_type"
	TagContentID      = "content_id"
	TagUserID         = "user_id"
	TagDeviceType     = "device_type"
	TagLocation       = "location"
	TagReferralSource = "referral_source"
)

// RequiredTags must be present and non-empty on every event.
var RequiredTags = []string{TagContentID, TagUserID, TagDeviceType}

// OptionalTags are included only when supplied and non-empty.
var OptionalTags = []string{TagLocation, TagReferralSource}

// DeviceTypes is the closed set of accepted device_type tag values.
var DeviceTypes = map[string]bool{
	"desktop": true,
	"mobile":  true,
	"tablet":  true,
	"other":   true,
}

// RawEvent is a loosely-typed request body as decoded from JSON, before
// any validation has run.
type RawEvent map[string]any

// CanonicalEvent is the validated, immutable record produced by the
// validator. Tags holds the indexed string dimensions (including
// event_type itself); Fields holds the typed values keyed by field name,
// with values restricted to int64, float64 or string per the field's
// schema kind. ReceivedAt is the ingestion time, intentionally distinct
// from the client-supplied "timestamp" field.
type CanonicalEvent struct {
	Type       EventType
	Tags       map[string]string
	Fields     map[string]any
	ReceivedAt time.Time
}

// UniqueKey identifies an event for duplicate suppression:
// `event_type|user_id|content_id|timestamp`.
func (e *CanonicalEvent) UniqueKey() string {
	ts, _ := e.Fields[FieldTimestamp].(int64)
	return string(e.Type) + "|" + e.Tags[TagUserID] + "|" + e.Tags[TagContentID] + "|" + strconv.FormatInt(ts, 10)
}

// EncodedRecord is one line-protocol line plus its write-time, held in
// the writer's pending queue until flushed. Key carries the event's
// dedup key so the batcher can filter already-processed records before
// a flush.
type EncodedRecord struct {
	Key       string
	Line      []byte
	WriteTime int64
}

type EventService interface {
	AcceptEvent(ctx context.Context, event *CanonicalEvent) (*EventResponse, error)
	WriterStats() WriterStats
}

package lineproto

import (
	"testing"
	"time"

	"journeytrack/ingest/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var receivedAt = time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)

func pageviewEvent() *domain.CanonicalEvent {
	return &domain.CanonicalEvent{
		Type: domain.EventPageview,
		Tags: map[string]string{
			domain.TagEventType:  "pageview",
			domain.TagContentID:  "content-42",
			domain.TagUserID:     "user-7",
			domain.TagDeviceType: "desktop",
		},
		Fields: map[string]any{
			domain.FieldTimestamp: int64(1756202400),
			domain.FieldPageURL:   "https://example.com/films/42",
		},
		ReceivedAt: receivedAt,
	}
}

func TestEncode_ExactLine(t *testing.T) {
	record, err := Encode(pageviewEvent())
	require.NoError(t, err)

	want := `events,content_id=content-42,device_type=desktop,event_type=pageview,user_id=user-7 ` +
		`timestamp=1756202400i,page_url="https://example.com/films/42" 1787824800`
	assert.Equal(t, want, string(record.Line))
	assert.Equal(t, receivedAt.Unix(), record.WriteTime)
	assert.Equal(t, "pageview|user-7|content-42|1756202400", record.Key)
}

func TestEncode_Deterministic(t *testing.T) {
	event := pageviewEvent()
	event.Tags[domain.TagLocation] = "DE"
	event.Tags[domain.TagReferralSource] = "newsletter"

	first, err := Encode(event)
	require.NoError(t, err)
	second, err := Encode(event)
	require.NoError(t, err)

	assert.Equal(t, first.Line, second.Line)
}

func TestEncode_TagsSortedLexicographically(t *testing.T) {
	event := pageviewEvent()
	event.Tags[domain.TagReferralSource] = "newsletter"
	event.Tags[domain.TagLocation] = "DE"

	record, err := Encode(event)
	require.NoError(t, err)

	want := `events,content_id=content-42,device_type=desktop,event_type=pageview,` +
		`location=DE,referral_source=newsletter,user_id=user-7`
	assert.Contains(t, string(record.Line), want)
}

func TestEncode_EscapesTagDelimiters(t *testing.T) {
	event := pageviewEvent()
	event.Tags[domain.TagContentID] = "a b,c=d"
	delete(event.Fields, domain.FieldPageURL)

	record, err := Encode(event)
	require.NoError(t, err)
	assert.Contains(t, string(record.Line), `content_id=a\ b\,c\=d`)
}

func TestEncode_EscapesBackslashesInTags(t *testing.T) {
	event := pageviewEvent()
	event.Tags[domain.TagContentID] = `c:\downloads\`
	event.Tags[domain.TagLocation] = `north\south`
	delete(event.Fields, domain.FieldPageURL)

	record, err := Encode(event)
	require.NoError(t, err)
	assert.Contains(t, string(record.Line), `content_id=c:\\downloads\\,device_type=desktop`)
	assert.Contains(t, string(record.Line), `location=north\\south`)

	// A trailing backslash must not swallow the separator and merge the
	// next tag into this value.
	decoded, err := Decode(record.Line)
	require.NoError(t, err)
	assert.Len(t, decoded.Tags, len(event.Tags))
	assert.Equal(t, event.Tags, decoded.Tags)
}

func TestEncode_EscapesStringFieldValues(t *testing.T) {
	event := pageviewEvent()
	event.Fields[domain.FieldPageURL] = `https://example.com/?q="a\b"`

	record, err := Encode(event)
	require.NoError(t, err)
	assert.Contains(t, string(record.Line), `page_url="https://example.com/?q=\"a\\b\""`)
}

func TestEncode_NumericTypeSuffixes(t *testing.T) {
	event := &domain.CanonicalEvent{
		Type: domain.EventRental,
		Tags: map[string]string{
			domain.TagEventType:  "rental",
			domain.TagContentID:  "c",
			domain.TagUserID:     "u",
			domain.TagDeviceType: "mobile",
		},
		Fields: map[string]any{
			domain.FieldTimestamp:       int64(100),
			domain.FieldRentalDuration:  int64(86400),
			domain.FieldRentalPopularity: int64(12),
		},
		ReceivedAt: receivedAt,
	}

	record, err := Encode(event)
	require.NoError(t, err)
	assert.Contains(t, string(record.Line), `rental_duration=86400i,rental_popularity=12i`)

	scroll := &domain.CanonicalEvent{
		Type: domain.EventScroll,
		Tags: map[string]string{
			domain.TagEventType:  "scroll",
			domain.TagContentID:  "c",
			domain.TagUserID:     "u",
			domain.TagDeviceType: "tablet",
		},
		Fields: map[string]any{
			domain.FieldTimestamp:   int64(100),
			domain.FieldScrollDepth: 0.65,
		},
		ReceivedAt: receivedAt,
	}

	record, err = Encode(scroll)
	require.NoError(t, err)
	assert.Contains(t, string(record.Line), `scroll_depth=0.65`)
	assert.NotContains(t, string(record.Line), `scroll_depth="`)
}

func TestEncode_RejectsUnknownField(t *testing.T) {
	event := pageviewEvent()
	event.Fields["made_up"] = "x"

	_, err := Encode(event)
	assert.Error(t, err)
}

func TestEncode_RejectsWrongValueType(t *testing.T) {
	event := pageviewEvent()
	event.Fields[domain.FieldTimestamp] = "not-a-number"

	_, err := Encode(event)
	assert.Error(t, err)
}

func TestDecode_RoundTrip(t *testing.T) {
	event := pageviewEvent()
	event.Tags[domain.TagLocation] = "Berlin, DE"
	event.Fields[domain.FieldPageURL] = `path with "quotes" and, commas`

	record, err := Encode(event)
	require.NoError(t, err)

	decoded, err := Decode(record.Line)
	require.NoError(t, err)

	assert.Equal(t, event.Type, decoded.Type)
	assert.Equal(t, event.Tags, decoded.Tags)
	assert.Equal(t, event.Fields, decoded.Fields)
	assert.Equal(t, record.WriteTime, decoded.ReceivedAt.Unix())
}

func TestDecode_Malformed(t *testing.T) {
	cases := []string{
		"",
		"events",
		"events,foo=bar",
		"events,foo=bar fields-without-equals 12",
		`events,foo=bar x="unterminated 12`,
	}
	for _, line := range cases {
		_, err := Decode([]byte(line))
		assert.Error(t, err, "line %q", line)
	}
}

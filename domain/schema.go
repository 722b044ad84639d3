package domain

// Field names shared by the event variants.
const (
	FieldTimestamp              = "timestamp"
	FieldPageURL                = "page_url"
	FieldScrollDepth            = "scroll_depth"
	FieldInteractionType        = "interaction_type"
	FieldPurchaseValue          = "purchase_value"
	FieldRentalDuration         = "rental_duration"
	FieldRentalPopularity       = "rental_popularity"
	FieldTimeLagFromTransaction = "time_lag_from_transaction"
	FieldButtonClicked          = "button_clicked"
)

// FieldKind is the wire type of a field value.
type FieldKind int

const (
	FieldInt FieldKind = iota
	FieldFloat
	FieldString
)

// FieldSpec describes one field of the schema: its wire kind and, for
// numeric kinds, the accepted range.
type FieldSpec struct {
	Name      string
	Kind      FieldKind
	InRange   func(v float64) bool
	RangeDesc string
}

func nonNegative(v float64) bool { return v >= 0 }

// scroll_depth is a fraction: 0 is the top of the page, 1 the bottom.
func unitInterval(v float64) bool { return v >= 0 && v <= 1 }

var fieldSpecs = map[string]FieldSpec{
	FieldTimestamp:              {Name: FieldTimestamp, Kind: FieldInt, InRange: nonNegative, RangeDesc: "must be a non-negative epoch-seconds integer"},
	FieldPageURL:                {Name: FieldPageURL, Kind: FieldString},
	FieldScrollDepth:            {Name: FieldScrollDepth, Kind: FieldFloat, InRange: unitInterval, RangeDesc: "must be within [0,1]"},
	FieldInteractionType:        {Name: FieldInteractionType, Kind: FieldString},
	FieldPurchaseValue:          {Name: FieldPurchaseValue, Kind: FieldFloat, InRange: nonNegative, RangeDesc: "must be >= 0"},
	FieldRentalDuration:         {Name: FieldRentalDuration, Kind: FieldInt, InRange: nonNegative, RangeDesc: "must be >= 0"},
	FieldRentalPopularity:       {Name: FieldRentalPopularity, Kind: FieldInt, InRange: nonNegative, RangeDesc: "must be >= 0"},
	FieldTimeLagFromTransaction: {Name: FieldTimeLagFromTransaction, Kind: FieldInt, InRange: nonNegative, RangeDesc: "must be >= 0"},
	FieldButtonClicked:          {Name: FieldButtonClicked, Kind: FieldString},
}

// variantFields maps each event variant to its applicable optional
// fields. timestamp is required on all variants and not listed here.
var variantFields = map[EventType][]string{
	EventPageview:        {FieldPageURL},
	EventInteraction:     {FieldPageURL, FieldInteractionType},
	EventTransaction:     {FieldPurchaseValue},
	EventButtonClick:     {FieldPageURL, FieldButtonClicked},
	EventScroll:          {FieldScrollDepth},
	EventFirstRentalView: {FieldTimeLagFromTransaction},
	EventRental:          {FieldRentalDuration, FieldRentalPopularity},
}

// fieldOrder fixes the field emission order for the line-protocol
// encoder. timestamp always leads; the rest follow schema order.
// Fields registered at runtime are appended in registration order.
var fieldOrder = []string{
	FieldTimestamp,
	FieldPageURL,
	FieldScrollDepth,
	FieldInteractionType,
	FieldPurchaseValue,
	FieldRentalDuration,
	FieldRentalPopularity,
	FieldTimeLagFromTransaction,
	FieldButtonClicked,
}

// KnownEventType reports whether t is a registered event variant.
func KnownEventType(t EventType) bool {
	_, ok := variantFields[t]
	return ok
}

// LookupField returns the schema spec for a field name.
func LookupField(name string) (FieldSpec, bool) {
	spec, ok := fieldSpecs[name]
	return spec, ok
}

// FieldApplicable reports whether the field applies to the given
// variant. timestamp applies to every variant.
func FieldApplicable(t EventType, field string) bool {
	if field == FieldTimestamp {
		return true
	}
	for _, f := range variantFields[t] {
		if f == field {
			return true
		}
	}
	return false
}

// ApplicableFields returns the optional field names of a variant.
func ApplicableFields(t EventType) []string {
	return variantFields[t]
}

// FieldOrder returns the fixed field emission order.
func FieldOrder() []string {
	return fieldOrder
}

// RegisterEventType adds a new event variant and its applicable fields.
// Intended to be called during startup, before the pipeline serves
// traffic; field names already present in the schema keep their
// existing spec.
func RegisterEventType(t EventType, fields []FieldSpec) {
	names := make([]string, 0, len(fields))
	for _, spec := range fields {
		if _, exists := fieldSpecs[spec.Name]; !exists {
			fieldSpecs[spec.Name] = spec
			fieldOrder = append(fieldOrder, spec.Name)
		}
		names = append(names, spec.Name)
	}
	variantFields[t] = names
}

package dates

import (
	"encoding/json"
	"time"
)

// FlexDate is a JSON date field that decodes leniently (any layout Parse
// accepts) and encodes as YYYY-MM-DD. The zero value marshals as null.
type FlexDate struct {
	time.Time
	valid bool
}

// NewFlexDate wraps a time in a valid FlexDate.
func NewFlexDate(t time.Time) FlexDate {
	return FlexDate{Time: t, valid: true}
}

// Valid reports whether the field was present and parseable.
func (d FlexDate) Valid() bool {
	return d.valid
}

// UnmarshalJSON decodes null, empty strings and any supported layout.
// An unparseable non-empty string is kept invalid rather than failing the
// whole payload; the caller substitutes its own fallback.
func (d *FlexDate) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == nil || *s == "" {
		*d = FlexDate{}
		return nil
	}
	t, ok := Parse(*s)
	if !ok {
		*d = FlexDate{}
		return nil
	}
	*d = FlexDate{Time: t, valid: true}
	return nil
}

// MarshalJSON encodes as "YYYY-MM-DD" or null when invalid.
func (d FlexDate) MarshalJSON() ([]byte, error) {
	if !d.valid {
		return []byte("null"), nil
	}
	return json.Marshal(Format(d.Time))
}

package dates

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
		ok    bool
	}{
		{
			name:  "extended ISO with fractional seconds",
			input: "2024-03-15T10:30:45.123Z",
			want:  time.Date(2024, 3, 15, 10, 30, 45, 123000000, time.UTC),
			ok:    true,
		},
		{
			name:  "extended ISO without fractional seconds",
			input: "2024-03-15T10:30:45Z",
			want:  time.Date(2024, 3, 15, 10, 30, 45, 0, time.UTC),
			ok:    true,
		},
		{
			name:  "plain date",
			input: "2024-03-15",
			want:  time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
			ok:    true,
		},
		{
			name:  "offset timezone",
			input: "2024-03-15T10:30:45+02:00",
			want:  time.Date(2024, 3, 15, 10, 30, 45, 0, time.FixedZone("", 2*3600)),
			ok:    true,
		},
		{name: "empty", input: "", ok: false},
		{name: "whitespace only", input: "   ", ok: false},
		{name: "garbage", input: "not-a-date", ok: false},
		{name: "us format rejected", input: "03/15/2024", ok: false},
		{name: "date with time but no zone", input: "2024-03-15 10:30:45", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.input)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.True(t, tt.want.Equal(got), "expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	d := time.Date(2024, 3, 5, 23, 59, 59, 0, time.UTC)
	assert.Equal(t, "2024-03-05", Format(d))
}

func TestFlexDateUnmarshal(t *testing.T) {
	var payload struct {
		Due FlexDate `json:"due"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"due":"2024-03-15T10:30:45.5Z"}`), &payload))
	require.True(t, payload.Due.Valid())
	assert.Equal(t, "2024-03-15", Format(payload.Due.Time))

	require.NoError(t, json.Unmarshal([]byte(`{"due":null}`), &payload))
	assert.False(t, payload.Due.Valid())

	// Unparseable dates do not fail the payload, they come back invalid.
	require.NoError(t, json.Unmarshal([]byte(`{"due":"soon"}`), &payload))
	assert.False(t, payload.Due.Valid())
}

func TestFlexDateMarshal(t *testing.T) {
	d := NewFlexDate(time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC))
	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2024-03-15"`, string(out))

	out, err = json.Marshal(FlexDate{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}

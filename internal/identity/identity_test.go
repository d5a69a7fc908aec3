package identity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type keyed struct {
	Primary   Key `json:"_id"`
	Alternate Key `json:"id"`
}

func (k keyed) IdentityKeys() (Key, Key) { return k.Primary, k.Alternate }

func TestOf_EitherFieldResolvesToSameID(t *testing.T) {
	t.Parallel()

	viaPrimary := keyed{Primary: "65af01"}
	viaAlternate := keyed{Alternate: "65af01"}

	assert.Equal(t, ID("65af01"), Of(viaPrimary))
	assert.Equal(t, Of(viaPrimary), Of(viaAlternate))
}

func TestOf_PrefersPrimary(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ID("abc"), Of(keyed{Primary: "abc", Alternate: "7"}))
}

func TestOf_BothAbsentIsEmpty(t *testing.T) {
	t.Parallel()

	id := Of(keyed{Primary: "  "})
	assert.True(t, id.Empty())
}

func TestKey_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want keyed
	}{
		{name: "string primary", in: `{"_id":"a1"}`, want: keyed{Primary: "a1"}},
		{name: "numeric alternate", in: `{"id":7}`, want: keyed{Alternate: "7"}},
		{name: "null primary", in: `{"_id":null,"id":"x"}`, want: keyed{Alternate: "x"}},
		{name: "trimmed", in: `{"_id":" a2 "}`, want: keyed{Primary: "a2"}},
		{name: "integral float", in: `{"id":12.0}`, want: keyed{Alternate: "12"}},
		{name: "beyond float precision", in: `{"id":9007199254740993}`, want: keyed{Alternate: "9007199254740993"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var got keyed
			require.NoError(t, json.Unmarshal([]byte(tt.in), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKey_UnmarshalJSON_RejectsObjects(t *testing.T) {
	t.Parallel()

	var got keyed
	require.Error(t, json.Unmarshal([]byte(`{"_id":{"x":1}}`), &got))
}

func TestNumericAndStringKeysMatch(t *testing.T) {
	t.Parallel()

	var fromBundle, fromBackend keyed
	require.NoError(t, json.Unmarshal([]byte(`{"id":12}`), &fromBundle))
	require.NoError(t, json.Unmarshal([]byte(`{"id":"12"}`), &fromBackend))
	assert.Equal(t, Of(fromBundle), Of(fromBackend))
}

func TestLargeNumericKeyMatchesPathParam(t *testing.T) {
	t.Parallel()

	var got keyed
	require.NoError(t, json.Unmarshal([]byte(`{"id":12345678901234567890}`), &got))
	assert.Equal(t, Parse("12345678901234567890"), Of(got))
}

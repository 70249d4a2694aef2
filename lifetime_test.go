package fnboot_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junioryono/fnboot"
)

func TestLifetime(t *testing.T) {
	t.Parallel()

	t.Run("String", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			lifetime fnboot.Lifetime
			expected string
		}{
			{fnboot.Singleton, "Singleton"},
			{fnboot.Transient, "Transient"},
			{fnboot.Scoped, "Scoped"},
			{fnboot.Lifetime(999), "Unknown(999)"},
		}

		for _, tt := range tests {
			assert.Equal(t, tt.expected, tt.lifetime.String())
		}
	})

	t.Run("IsValid", func(t *testing.T) {
		t.Parallel()

		assert.True(t, fnboot.Singleton.IsValid())
		assert.True(t, fnboot.Transient.IsValid())
		assert.True(t, fnboot.Scoped.IsValid())
		assert.False(t, fnboot.Lifetime(-1).IsValid())
		assert.False(t, fnboot.Lifetime(3).IsValid())
	})

	t.Run("text round trip", func(t *testing.T) {
		t.Parallel()

		for _, l := range []fnboot.Lifetime{fnboot.Singleton, fnboot.Transient, fnboot.Scoped} {
			text, err := l.MarshalText()
			require.NoError(t, err)

			var got fnboot.Lifetime
			require.NoError(t, got.UnmarshalText(text))
			assert.Equal(t, l, got)
		}
	})

	t.Run("lowercase names", func(t *testing.T) {
		t.Parallel()

		var l fnboot.Lifetime
		require.NoError(t, l.UnmarshalText([]byte("scoped")))
		assert.Equal(t, fnboot.Scoped, l)
	})

	t.Run("invalid values", func(t *testing.T) {
		t.Parallel()

		_, err := fnboot.Lifetime(7).MarshalText()
		var lifetimeErr fnboot.LifetimeError
		require.ErrorAs(t, err, &lifetimeErr)
		assert.Equal(t, 7, lifetimeErr.Value)

		var l fnboot.Lifetime
		assert.Error(t, l.UnmarshalText([]byte("forever")))
	})

	t.Run("JSON in a struct", func(t *testing.T) {
		t.Parallel()

		type registration struct {
			Lifetime fnboot.Lifetime `json:"lifetime"`
		}

		data, err := json.Marshal(registration{Lifetime: fnboot.Transient})
		require.NoError(t, err)
		assert.JSONEq(t, `{"lifetime":"Transient"}`, string(data))

		var decoded registration
		require.NoError(t, json.Unmarshal([]byte(`{"lifetime":"Scoped"}`), &decoded))
		assert.Equal(t, fnboot.Scoped, decoded.Lifetime)
	})
}

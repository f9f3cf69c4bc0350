package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewID verifies that NewID generates valid, unique UUIDs
func TestNewID(t *testing.T) {
	id1 := NewID()
	id2 := NewID()

	require.NoError(t, id1.Validate())
	require.NoError(t, id2.Validate())
	assert.NotEqual(t, id1, id2)
}

// TestParseID verifies parsing of valid and invalid UUID strings
func TestParseID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid uuid", "550e8400-e29b-41d4-a716-446655440000", false},
		{"empty string", "", true},
		{"not a uuid", "not-a-uuid", true},
		{"truncated", "550e8400-e29b-41d4", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := ParseID(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.input, id.String())
			}
		})
	}
}

// TestID_IsZero verifies zero-value detection
func TestID_IsZero(t *testing.T) {
	var zero ID
	assert.True(t, zero.IsZero())
	assert.False(t, NewID().IsZero())
}

// TestID_JSONRoundTrip verifies JSON serialization preserves the ID
func TestID_JSONRoundTrip(t *testing.T) {
	id := NewID()

	data, err := json.Marshal(id)
	require.NoError(t, err)

	var decoded ID
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, id, decoded)
}

// TestID_MarshalJSON_Zero verifies that a zero ID serializes as null
func TestID_MarshalJSON_Zero(t *testing.T) {
	var zero ID
	data, err := json.Marshal(zero)
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}

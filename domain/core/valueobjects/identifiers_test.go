package valueobjects

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSessionID(t *testing.T) {
	id := NewSessionID()

	assert.NotEmpty(t, id.String())
	assert.False(t, id.IsZero())

	// Should be a valid UUID
	_, err := uuid.Parse(id.String())
	assert.NoError(t, err)
}

func TestNewSessionIDFromString(t *testing.T) {
	validUUID := uuid.New().String()

	tests := []struct {
		name    string
		input   string
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid UUID string",
			input:   validUUID,
			wantErr: false,
		},
		{
			name:    "empty string",
			input:   "",
			wantErr: true,
			errMsg:  "session ID cannot be empty",
		},
		{
			name:    "invalid UUID format",
			input:   "not-a-uuid",
			wantErr: true,
			errMsg:  "session ID must be a valid UUID",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := NewSessionIDFromString(tt.input)

			if tt.wantErr {
				assert.Error(t, err)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
				assert.True(t, id.IsZero())
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.input, id.String())
				assert.False(t, id.IsZero())
			}
		})
	}
}

func TestSessionID_JSONRoundTrip(t *testing.T) {
	id := NewSessionID()

	data, err := json.Marshal(id)
	require.NoError(t, err)

	var decoded SessionID
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, id.Equals(decoded))
}

func TestNewMessageID(t *testing.T) {
	id := NewMessageID()

	assert.False(t, id.IsZero())
	_, err := uuid.Parse(id.String())
	assert.NoError(t, err)

	other := NewMessageID()
	assert.False(t, id.Equals(other))
}

func TestNewChunkID(t *testing.T) {
	id := NewChunkID()

	assert.False(t, id.IsZero())
	_, err := ulid.Parse(id.String())
	assert.NoError(t, err)
}

func TestNewChunkIDFromString(t *testing.T) {
	valid := NewChunkID().String()

	id, err := NewChunkIDFromString(valid)
	require.NoError(t, err)
	assert.Equal(t, valid, id.String())

	_, err = NewChunkIDFromString("")
	assert.Error(t, err)

	_, err = NewChunkIDFromString("not-a-ulid")
	assert.Error(t, err)
}

func TestChunkID_SortsByCreationTime(t *testing.T) {
	first := NewChunkID()
	second := NewChunkID()

	assert.Less(t, first.String(), second.String())
}

package valueobjects

import (
	"errors"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// SessionID is a value object representing a unique interview session identifier.
// Value objects are immutable and have no identity beyond their value.
type SessionID struct {
	value string
}

// NewSessionID creates a new random SessionID
func NewSessionID() SessionID {
	return SessionID{value: uuid.New().String()}
}

// NewSessionIDFromString creates a SessionID from an existing string
func NewSessionIDFromString(id string) (SessionID, error) {
	if id == "" {
		return SessionID{}, errors.New("session ID cannot be empty")
	}
	if !isValidUUID(id) {
		return SessionID{}, errors.New("session ID must be a valid UUID")
	}
	return SessionID{value: id}, nil
}

// String returns the string representation of the SessionID
func (id SessionID) String() string {
	return id.value
}

// Equals checks if two SessionIDs are equal
func (id SessionID) Equals(other SessionID) bool {
	return id.value == other.value
}

// IsZero checks if the SessionID is the zero value
func (id SessionID) IsZero() bool {
	return id.value == ""
}

// MarshalJSON implements json.Marshaler
func (id SessionID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + id.value + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (id *SessionID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return errors.New("SessionID must be a string")
	}
	id.value = string(data[1 : len(data)-1])
	return nil
}

// MessageID is a value object representing a unique transcript message identifier
type MessageID struct {
	value string
}

// NewMessageID creates a new random MessageID
func NewMessageID() MessageID {
	return MessageID{value: uuid.New().String()}
}

// NewMessageIDFromString creates a MessageID from an existing string
func NewMessageIDFromString(id string) (MessageID, error) {
	if id == "" {
		return MessageID{}, errors.New("message ID cannot be empty")
	}
	if !isValidUUID(id) {
		return MessageID{}, errors.New("message ID must be a valid UUID")
	}
	return MessageID{value: id}, nil
}

// String returns the string representation of the MessageID
func (id MessageID) String() string {
	return id.value
}

// Equals checks if two MessageIDs are equal
func (id MessageID) Equals(other MessageID) bool {
	return id.value == other.value
}

// IsZero checks if the MessageID is the zero value
func (id MessageID) IsZero() bool {
	return id.value == ""
}

// MarshalJSON implements json.Marshaler
func (id MessageID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + id.value + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (id *MessageID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return errors.New("MessageID must be a string")
	}
	id.value = string(data[1 : len(data)-1])
	return nil
}

// ChunkID is a value object identifying a memory chunk. ULIDs sort by
// creation time, which keeps chunk scans in insertion order.
type ChunkID struct {
	value string
}

// NewChunkID creates a new time-ordered ChunkID
func NewChunkID() ChunkID {
	return ChunkID{value: ulid.Make().String()}
}

// NewChunkIDFromString creates a ChunkID from an existing string
func NewChunkIDFromString(id string) (ChunkID, error) {
	if id == "" {
		return ChunkID{}, errors.New("chunk ID cannot be empty")
	}
	if _, err := ulid.Parse(id); err != nil {
		return ChunkID{}, errors.New("chunk ID must be a valid ULID")
	}
	return ChunkID{value: id}, nil
}

// String returns the string representation of the ChunkID
func (id ChunkID) String() string {
	return id.value
}

// Equals checks if two ChunkIDs are equal
func (id ChunkID) Equals(other ChunkID) bool {
	return id.value == other.value
}

// IsZero checks if the ChunkID is the zero value
func (id ChunkID) IsZero() bool {
	return id.value == ""
}

// isValidUUID validates if a string is a valid UUID
func isValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// Package domain contains room entities and their invariants, no transport.
package domain

const (
	MaxCodeLen = 36
	MaxNameLen = 36
)

// ConnID identifies a live push connection.
type ConnID string

// Participant occupies one slot of a room. Conn is empty for pull clients.
type Participant struct {
	Name string
	Conn ConnID
}

// SeatView is the public view of an occupied slot (no transport fields).
type SeatView struct {
	Slot Slot   `json:"slot"`
	Name string `json:"name"`
}

// NewParticipant validates the display name the way room codes are validated.
func NewParticipant(name string, conn ConnID) (*Participant, error) {
	if len(name) == 0 {
		return nil, ErrNameEmpty
	}
	if len(name) > MaxNameLen {
		return nil, ErrNameTooLong
	}
	return &Participant{Name: name, Conn: conn}, nil
}

func ValidateCode(code RoomCode) error {
	if len(code) == 0 {
		return ErrCodeEmpty
	}
	if len(code) > MaxCodeLen {
		return ErrCodeTooLong
	}
	return nil
}

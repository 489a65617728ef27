package order

import "fmt"

// Status is the fulfilment state of an order. Both values can move to the
// other, and only through an explicit status update.
type Status uint8

const (
	StatusIncomplete Status = iota
	StatusCompleted
)

// Statuses lists every status in display order.
func Statuses() []Status {
	return []Status{StatusIncomplete, StatusCompleted}
}

func (s Status) String() string {
	switch s {
	case StatusIncomplete:
		return "incomplete"
	case StatusCompleted:
		return "completed"
	default:
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
}

// Valid reports whether s is one of the declared statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusIncomplete, StatusCompleted:
		return true
	default:
		return false
	}
}

// ParseStatus converts the wire name back into a Status.
func ParseStatus(text string) (Status, error) {
	switch text {
	case "incomplete":
		return StatusIncomplete, nil
	case "completed":
		return StatusCompleted, nil
	default:
		return 0, fmt.Errorf("unknown order status %q", text)
	}
}

func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("cannot marshal %s", s)
	}
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

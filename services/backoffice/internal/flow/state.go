package flow

import "errors"

// State is the position of a split or merge flow.
type State int

const (
	Idle State = iota
	Selecting
	Validated
	Submitting
	Succeeded
	Failed
)

var stateNames = map[State]string{
	Idle:       "idle",
	Selecting:  "selecting",
	Validated:  "validated",
	Submitting: "submitting",
	Succeeded:  "succeeded",
	Failed:     "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// MarshalText renders the state by name in JSON payloads.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

var (
	ErrBusy              = errors.New("a submission is already in progress")
	ErrClosed            = errors.New("flow is closed")
	ErrNotValidated      = errors.New("nothing validated to submit")
	ErrInvalidTransition = errors.New("invalid flow transition")
)

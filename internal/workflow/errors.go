package workflow

import "errors"

var (
	// ErrInvalidSeed indicates a caller-supplied seed is missing required
	// fields. This is the only error class the runners return for bad input;
	// agent-level failures accumulate in State.Errors instead.
	ErrInvalidSeed = errors.New("invalid workflow seed")

	// ErrFieldOwned indicates a stage attempted to write a state field that
	// was already written by its owning stage.
	ErrFieldOwned = errors.New("state field already written")

	// ErrPayloadType indicates an agent produced a payload of the wrong type
	// for its stage.
	ErrPayloadType = errors.New("unexpected stage payload type")
)

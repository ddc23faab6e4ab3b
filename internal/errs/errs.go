package errs

import "errors"

var (
	ErrTicketNotFound = errors.New("ticket not found")

	// ErrInvalidTransition is returned when a conditional processing-status
	// update matches no row: the ticket exists but is not in the expected
	// previous state (duplicate callback, replayed trigger, out-of-order
	// delivery).
	ErrInvalidTransition = errors.New("ticket not in expected processing state")

	// ErrMalformedCallback is returned by the inbound-parse adapter when the
	// provider callback does not carry a recoverable ticket envelope.
	ErrMalformedCallback = errors.New("malformed inbound callback")

	// ErrSchemaValidation is returned when the model's extraction response
	// does not conform to the required output schema.
	ErrSchemaValidation = errors.New("extraction response failed schema validation")

	ErrNotOwner = errors.New("ticket belongs to another user")
)

package eventstore

import (
	"git.home.luguber.info/inful/mdcms/internal/foundation/errors"
)

var (
	// ErrDatabaseOpenFailed indicates the SQLite database could not be opened.
	ErrDatabaseOpenFailed = errors.NewError(errors.CategoryEvents, "could not open event journal database").Build()

	// ErrInitializeSchemaFailed indicates the database schema could not be initialized.
	ErrInitializeSchemaFailed = errors.NewError(errors.CategoryEvents, "failed to initialize event journal schema").Build()

	ErrEventAppendFailed = errors.NewError(errors.CategoryEvents, "failed to append event to journal").Build()
	ErrEventQueryFailed  = errors.NewError(errors.CategoryEvents, "failed to query events from journal").Build()
	ErrEventScanFailed   = errors.NewError(errors.CategoryEvents, "failed to scan event rows").Build()

	// ErrMarshalPayloadFailed indicates JSON marshaling of an event payload failed.
	ErrMarshalPayloadFailed = errors.NewError(errors.CategoryEvents, "failed to marshal event payload").Build()

	// ErrUnmarshalPayloadFailed indicates JSON unmarshaling of an event payload failed.
	ErrUnmarshalPayloadFailed = errors.NewError(errors.CategoryEvents, "failed to unmarshal event payload").Build()

	// ErrMissingSessionID is returned when an event is appended without a session.
	ErrMissingSessionID = errors.ValidationError("event session id is required").Build()
)

// wrap attaches cause to a sentinel while keeping errors.Is matching on it.
func wrap(sentinel *errors.ClassifiedError, cause error) error {
	return errors.WrapError(cause, sentinel.Category(), sentinel.Message()).Build()
}

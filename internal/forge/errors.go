package forge

import (
	"git.home.luguber.info/inful/mdcms/internal/foundation/errors"
)

var (
	// ErrAuthRequired signals that no token was configured.
	ErrAuthRequired = errors.AuthError("authentication required for GitHub client").Build()

	// ErrRepositoryRequired signals a missing owner or repository name.
	ErrRepositoryRequired = errors.ConfigError("GitHub owner and repository are required").Build()

	// ErrNotAFile signals that a content path names a directory or symlink.
	ErrNotAFile = errors.ValidationError("path is not a file").Build()

	// ErrInvalidSignature signals a webhook whose signature does not verify.
	ErrInvalidSignature = errors.AuthError("invalid webhook signature").Build()

	// ErrUnsupportedEvent signals a webhook event type that is not handled.
	ErrUnsupportedEvent = errors.ForgeError("unsupported webhook event type").WithSeverity(errors.SeverityInfo).Build()
)

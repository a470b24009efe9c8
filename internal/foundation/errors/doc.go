// Package errors provides the classified error primitives used across mdcms.
//
// Every package reports failures as *ClassifiedError values built through the
// fluent ErrorBuilder, so transports (HTTP API, CLI) can map them to status
// codes and exit codes without string matching.
//
//   - ErrorCategory: what failed (validation, range, read_only, upload, forge, ...)
//   - ErrorSeverity: impact level (fatal, error, warning, info)
//   - RetryStrategy: whether repeating the operation can help
//
// Example usage:
//
//	err := errors.NewError(errors.CategoryUpload, "image upload failed").
//		WithContext("filename", name).
//		WithCause(cause).
//		Build()
package errors

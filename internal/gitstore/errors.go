package gitstore

import (
	"strings"

	"git.home.luguber.info/inful/mdcms/internal/foundation/errors"
)

// classifyGitError translates go-git errors into classified errors.
func classifyGitError(err error, op string) error {
	if err == nil {
		return nil
	}
	if _, ok := errors.AsClassified(err); ok {
		return err
	}

	l := strings.ToLower(err.Error())
	builder := errors.GitError("git " + op + " failed").
		WithCause(err).
		WithContext("op", op)

	switch {
	case strings.Contains(l, "authentication") || strings.Contains(l, "not authorized") || strings.Contains(l, "invalid credentials"):
		return errors.WrapError(err, errors.CategoryAuth, "git remote rejected credentials").WithContext("op", op).Build()
	case strings.Contains(l, "non-fast-forward") || strings.Contains(l, "diverged"):
		return errors.WrapError(err, errors.CategoryConflict, "remote has newer commits").WithContext("op", op).UserAction().Build()
	case strings.Contains(l, "connection reset") || strings.Contains(l, "timeout") || strings.Contains(l, "no route to host"):
		return errors.WrapError(err, errors.CategoryNetwork, "git remote unreachable").WithContext("op", op).Retryable().Build()
	}
	return builder.Build()
}

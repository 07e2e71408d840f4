package security

import (
	"errors"

	esdomain "github.com/iamcore/iamcore/pkg/eventsourcing/domain"
	"github.com/iamcore/iamcore/pkg/domain"
)

// ClassifyForCaller maps an arbitrary error crossing the command-engine
// boundary onto the caller-facing ErrorKind taxonomy. If err already carries
// a classification (a *domain.TaxonomyError anywhere in its chain) that
// classification is preserved verbatim; unrecognized event-store sentinels
// are mapped to their taxonomy equivalent; anything else becomes
// KindInternal, matching this package's existing default-to-generic
// sanitization stance in SanitizeForUser.
func ClassifyForCaller(err error, code string) *domain.TaxonomyError {
	if err == nil {
		return nil
	}

	var te *domain.TaxonomyError
	if errors.As(err, &te) {
		return te
	}

	switch {
	case errors.Is(err, esdomain.ErrConcurrencyConflict):
		return domain.NewConcurrencyConflict(code, "the aggregate was modified concurrently", err)
	case errors.Is(err, esdomain.ErrEventNotFound):
		return domain.NewNotFound(code, "event not found")
	case errors.Is(err, esdomain.ErrInvalidEvent):
		return domain.NewInvalidArgument(code, "invalid event")
	case errors.Is(err, esdomain.ErrEmptyPush):
		return domain.NewInvalidArgument(code, "at least one command is required")
	default:
		return domain.NewInternal(code, "an internal error occurred", err)
	}
}

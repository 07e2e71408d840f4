// Package enckey models encryption keys (spec.md §3.3, §4.3): stored
// directly as records, not an event stream, since nothing about an
// encryption key's lifecycle benefits from replayable history — it is
// added, read, listed, and removed, each a direct mutation of its row.
package enckey

import (
	"context"
	"errors"

	"github.com/iamcore/iamcore/pkg/domain"
)

// Key is the record shape for one encryption key. Identifier is unique per
// instance (§3.3).
type Key struct {
	InstanceID string
	Identifier string
	Algorithm  string
	Material   string // opaque, provider-specific (e.g. base64 key bytes, KMS key ARN)
}

var ErrAlreadyExists = errors.New("encryption key already exists")

// Store is the record-store contract a command handler uses directly,
// without the event-store/reducer machinery the event-sourced aggregates go
// through.
type Store interface {
	Add(ctx context.Context, k Key) error
	Get(ctx context.Context, instanceID, identifier string) (*Key, error)
	List(ctx context.Context, instanceID string) ([]Key, error)
	Remove(ctx context.Context, instanceID, identifier string) error
}

func Validate(k Key) error {
	if k.Identifier == "" {
		return domain.NewInvalidArgument("ENCKEY-001", "identifier is required")
	}
	if k.Material == "" {
		return domain.NewInvalidArgument("ENCKEY-002", "key material is required")
	}
	return nil
}

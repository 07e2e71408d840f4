// Package webkey implements the Web Key aggregate (spec.md §3.3, §4.3):
// event-sourced JOSE signing key generation with a state machine
// (INITIAL/ACTIVE/INACTIVE/REMOVED) that forbids activating an
// already-active key, removing an active key, or deactivating a non-active
// key.
package webkey

import (
	"fmt"

	"github.com/iamcore/iamcore/internal/domain/base"
	"github.com/iamcore/iamcore/pkg/domain"
	esdomain "github.com/iamcore/iamcore/pkg/eventsourcing/domain"
)

const AggregateType = "web_key"

type State string

const (
	StateUnspecified State = "UNSPECIFIED"
	StateInitial     State = "INITIAL"
	StateActive      State = "ACTIVE"
	StateInactive    State = "INACTIVE"
	StateRemoved     State = "REMOVED"
)

type Algorithm string

const (
	AlgorithmRS256 Algorithm = "RS256"
	AlgorithmES256 Algorithm = "ES256"
)

type WebKey struct {
	base.Aggregate

	State     State
	Algorithm Algorithm
	PublicJWK string // opaque JWK JSON, generated by the injected key-material capability
}

func newWebKey(instanceID, id string) *WebKey {
	k := &WebKey{Aggregate: base.NewAggregate(AggregateType, instanceID, id)}
	k.SetApplier(k.apply)
	return k
}

func Reduce(instanceID, id string, events []esdomain.EventEnvelope[any]) (*WebKey, error) {
	k := newWebKey(instanceID, id)
	for _, env := range events {
		if err := k.apply(env); err != nil {
			return nil, fmt.Errorf("reduce web key %s: %w", id, err)
		}
		k.Observe(env)
	}
	return k, nil
}

func (k *WebKey) apply(env esdomain.EventEnvelope[any]) error {
	switch env.EventType {
	case "web_key.generated":
		p, err := decodePayload[GeneratedPayload](env)
		if err != nil {
			return err
		}
		k.Algorithm = p.Algorithm
		k.PublicJWK = p.PublicJWK
		k.State = StateInitial

	case "web_key.activated":
		k.State = StateActive

	case "web_key.deactivated":
		k.State = StateInactive

	case "web_key.removed":
		k.State = StateRemoved
	}

	return nil
}

func decodePayload[T any](env esdomain.EventEnvelope[any]) (T, error) {
	var zero T
	if payload, ok := env.Payload.(T); ok {
		return payload, nil
	}
	decoded, err := decodeViaJSON[T](env.Payload)
	if err != nil {
		return zero, domain.NewInternal("WEBKEY-DECODE-001", fmt.Sprintf("corrupted %s payload", env.EventType), err)
	}
	return decoded, nil
}

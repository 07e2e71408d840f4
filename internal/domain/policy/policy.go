// Package policy implements the instance/org policy family (spec.md §3.3,
// §4.3): password complexity, password age, password lockout, login, label,
// privacy, notification, domain, and MFA policies, each scoped to either the
// instance or one organization, with an at-most-one-default-per-scope
// invariant. Every kind shares the same add/change/remove shape, so one
// generic aggregate models all of them. The aggregate does not validate the
// kind-specific Settings; the pure helpers in policy_services.go (§4.7)
// check a password or a failed-attempt count against policy settings.
package policy

import (
	"fmt"
	"reflect"

	"github.com/iamcore/iamcore/internal/domain/base"
	"github.com/iamcore/iamcore/pkg/domain"
	esdomain "github.com/iamcore/iamcore/pkg/eventsourcing/domain"
)

const AggregateType = "policy"

type Kind string

const (
	KindPasswordComplexity Kind = "PASSWORD_COMPLEXITY"
	KindPasswordAge        Kind = "PASSWORD_AGE"
	KindPasswordLockout    Kind = "PASSWORD_LOCKOUT"
	KindLogin              Kind = "LOGIN"
	KindLabel              Kind = "LABEL"
	KindPrivacy            Kind = "PRIVACY"
	KindNotification       Kind = "NOTIFICATION"
	KindDomain             Kind = "DOMAIN"
	KindMFA                Kind = "MFA"
)

type Scope string

const (
	ScopeInstance Scope = "INSTANCE"
	ScopeOrg      Scope = "ORG"
)

type State string

const (
	StateUnspecified State = "UNSPECIFIED"
	StateActive      State = "ACTIVE"
	StateRemoved     State = "REMOVED"
)

// Policy is the reduced state of one policy aggregate. Settings carries the
// kind-specific fields as a plain map so the aggregate doesn't need one
// Go type per policy kind. policy_services.go declares the typed
// ComplexitySettings shape but has no function that converts Settings
// into it.
type Policy struct {
	base.Aggregate

	Kind     Kind
	Scope    Scope
	ScopeID  string
	State    State
	Settings map[string]any
}

func newPolicy(instanceID, id string) *Policy {
	p := &Policy{
		Aggregate: base.NewAggregate(AggregateType, instanceID, id),
		Settings:  make(map[string]any),
	}
	p.SetApplier(p.apply)
	return p
}

func Reduce(instanceID, id string, events []esdomain.EventEnvelope[any]) (*Policy, error) {
	p := newPolicy(instanceID, id)
	for _, env := range events {
		if err := p.apply(env); err != nil {
			return nil, fmt.Errorf("reduce policy %s: %w", id, err)
		}
		p.Observe(env)
	}
	return p, nil
}

func (p *Policy) apply(env esdomain.EventEnvelope[any]) error {
	switch env.EventType {
	case "policy.added":
		v, err := decodePayload[AddedPayload](env)
		if err != nil {
			return err
		}
		p.Kind = v.Kind
		p.Scope = v.Scope
		p.ScopeID = v.ScopeID
		p.Settings = v.Settings
		p.State = StateActive

	case "policy.changed":
		v, err := decodePayload[ChangedPayload](env)
		if err != nil {
			return err
		}
		p.Settings = v.Settings

	case "policy.removed":
		p.State = StateRemoved
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
		return zero, domain.NewInternal("POLICY-DECODE-001", fmt.Sprintf("corrupted %s payload", env.EventType), err)
	}
	return decoded, nil
}

func settingsEqual(a, b map[string]any) bool {
	return reflect.DeepEqual(a, b)
}

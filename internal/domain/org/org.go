// Package org implements the Organization aggregate (spec.md §3.3, §4.2,
// §4.3): name/state lifecycle, verified domains with at most one primary
// (none until one is set, and none again after the primary is removed),
// and membership.
package org

import (
	"fmt"

	"github.com/iamcore/iamcore/internal/domain/base"
	"github.com/iamcore/iamcore/pkg/domain"
	esdomain "github.com/iamcore/iamcore/pkg/eventsourcing/domain"
)

const AggregateType = "org"

type State string

const (
	StateUnspecified State = "UNSPECIFIED"
	StateActive      State = "ACTIVE"
	StateInactive    State = "INACTIVE"
	StateRemoved     State = "REMOVED"
)

type Domain struct {
	Name       string
	Verified   bool
	Primary    bool
	VerifyCode string
}

type Member struct {
	UserID string
	Roles  []string
}

// Organization is the reduced state of one org aggregate, plus the
// bookkeeping needed to record new events and push them atomically.
type Organization struct {
	base.Aggregate

	Name    string
	State   State
	Domains []Domain
	Members map[string]*Member
}

func newOrganization(instanceID, id string) *Organization {
	o := &Organization{
		Aggregate: base.NewAggregate(AggregateType, instanceID, id),
		Members:   make(map[string]*Member),
	}
	o.SetApplier(o.apply)
	return o
}

// Reduce folds a historical event stream (already ordered by position) into
// a fresh Organization. Unknown event types are ignored, per §4.2.
func Reduce(instanceID, id string, events []esdomain.EventEnvelope[any]) (*Organization, error) {
	o := newOrganization(instanceID, id)
	for _, env := range events {
		if err := o.apply(env); err != nil {
			return nil, fmt.Errorf("reduce org %s: %w", id, err)
		}
		o.Observe(env)
	}
	return o, nil
}

func (o *Organization) apply(env esdomain.EventEnvelope[any]) error {
	switch env.EventType {
	case "org.added":
		p, err := decodePayload[OrgAddedPayload](env)
		if err != nil {
			return err
		}
		o.Name = p.Name
		o.State = StateActive

	case "org.changed":
		p, err := decodePayload[OrgChangedPayload](env)
		if err != nil {
			return err
		}
		o.Name = p.Name

	case "org.deactivated":
		o.State = StateInactive

	case "org.reactivated":
		o.State = StateActive

	case "org.removed":
		o.State = StateRemoved

	case "org.domain.added":
		p, err := decodePayload[OrgDomainAddedPayload](env)
		if err != nil {
			return err
		}
		o.Domains = append(o.Domains, Domain{Name: p.Name, VerifyCode: p.VerifyCode})

	case "org.domain.verified":
		p, err := decodePayload[OrgDomainVerifiedPayload](env)
		if err != nil {
			return err
		}
		if d := o.findDomain(p.Name); d != nil {
			d.Verified = true
		}

	case "org.domain.primary.set":
		p, err := decodePayload[OrgDomainPrimarySetPayload](env)
		if err != nil {
			return err
		}
		for i := range o.Domains {
			o.Domains[i].Primary = false
		}
		if d := o.findDomain(p.Name); d != nil {
			d.Primary = true
		}

	case "org.domain.removed":
		p, err := decodePayload[OrgDomainRemovedPayload](env)
		if err != nil {
			return err
		}
		o.removeDomain(p.Name)

	case "org.member.added":
		p, err := decodePayload[OrgMemberAddedPayload](env)
		if err != nil {
			return err
		}
		o.Members[p.UserID] = &Member{UserID: p.UserID, Roles: p.Roles}

	case "org.member.changed":
		p, err := decodePayload[OrgMemberChangedPayload](env)
		if err != nil {
			return err
		}
		if m, ok := o.Members[p.UserID]; ok {
			m.Roles = p.Roles
		}

	case "org.member.removed":
		p, err := decodePayload[OrgMemberRemovedPayload](env)
		if err != nil {
			return err
		}
		delete(o.Members, p.UserID)
	}

	return nil
}

func (o *Organization) findDomain(name string) *Domain {
	for i := range o.Domains {
		if o.Domains[i].Name == name {
			return &o.Domains[i]
		}
	}
	return nil
}

func (o *Organization) removeDomain(name string) {
	for i, d := range o.Domains {
		if d.Name == name {
			o.Domains = append(o.Domains[:i], o.Domains[i+1:]...)
			return
		}
	}
}

// PrimaryDomain returns the currently-primary domain name, or "" if none is
// set (e.g. right after the primary domain was removed).
func (o *Organization) PrimaryDomain() string {
	for _, d := range o.Domains {
		if d.Primary {
			return d.Name
		}
	}
	return ""
}

func decodePayload[T any](env esdomain.EventEnvelope[any]) (T, error) {
	var zero T
	payload, ok := env.Payload.(T)
	if ok {
		return payload, nil
	}
	// Payloads replayed from storage decode through JSON into map[string]any;
	// re-marshal/unmarshal to recover the typed struct.
	decoded, err := decodeViaJSON[T](env.Payload)
	if err != nil {
		return zero, domain.NewInternal("ORG-DECODE-001", fmt.Sprintf("corrupted %s payload", env.EventType), err)
	}
	return decoded, nil
}

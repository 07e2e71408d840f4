// Package action implements the Action and Execution aggregates (spec.md
// §3.3, §4.3): action CRUD with deactivate/reactivate, and execution CRUD
// with a target list.
package action

import (
	"fmt"

	"github.com/iamcore/iamcore/internal/domain/base"
	"github.com/iamcore/iamcore/pkg/domain"
	esdomain "github.com/iamcore/iamcore/pkg/eventsourcing/domain"
)

const (
	AggregateType          = "instance.action"
	ExecutionAggregateType = "instance.execution"
)

type State string

const (
	StateUnspecified State = "UNSPECIFIED"
	StateActive      State = "ACTIVE"
	StateInactive    State = "INACTIVE"
	StateRemoved     State = "REMOVED"
)

type Action struct {
	base.Aggregate

	Name          string
	Script        string
	AllowedToFail bool
	State         State
}

func newAction(instanceID, id string) *Action {
	a := &Action{Aggregate: base.NewAggregate(AggregateType, instanceID, id)}
	a.SetApplier(a.apply)
	return a
}

func Reduce(instanceID, id string, events []esdomain.EventEnvelope[any]) (*Action, error) {
	a := newAction(instanceID, id)
	for _, env := range events {
		if err := a.apply(env); err != nil {
			return nil, fmt.Errorf("reduce instance action %s: %w", id, err)
		}
		a.Observe(env)
	}
	return a, nil
}

func (a *Action) apply(env esdomain.EventEnvelope[any]) error {
	switch env.EventType {
	case "instance.action.added":
		p, err := decodePayload[AddedPayload](env)
		if err != nil {
			return err
		}
		a.Name = p.Name
		a.Script = p.Script
		a.AllowedToFail = p.AllowedToFail
		a.State = StateActive

	case "instance.action.changed":
		p, err := decodePayload[ChangedPayload](env)
		if err != nil {
			return err
		}
		a.Name = p.Name
		a.Script = p.Script
		a.AllowedToFail = p.AllowedToFail

	case "instance.action.deactivated":
		a.State = StateInactive

	case "instance.action.reactivated":
		a.State = StateActive

	case "instance.action.removed":
		a.State = StateRemoved
	}
	return nil
}

// Execution is a reduced instance.execution aggregate: an ordered list of
// target IDs this execution fans out to.
type Execution struct {
	base.Aggregate

	Targets []string
	Removed bool
}

func newExecution(instanceID, id string) *Execution {
	e := &Execution{Aggregate: base.NewAggregate(ExecutionAggregateType, instanceID, id)}
	e.SetApplier(e.applyExecution)
	return e
}

func ReduceExecution(instanceID, id string, events []esdomain.EventEnvelope[any]) (*Execution, error) {
	e := newExecution(instanceID, id)
	for _, env := range events {
		if err := e.applyExecution(env); err != nil {
			return nil, fmt.Errorf("reduce instance execution %s: %w", id, err)
		}
		e.Observe(env)
	}
	return e, nil
}

func (e *Execution) applyExecution(env esdomain.EventEnvelope[any]) error {
	switch env.EventType {
	case "instance.execution.added":
		p, err := decodePayload[ExecutionAddedPayload](env)
		if err != nil {
			return err
		}
		e.Targets = p.Targets

	case "instance.execution.changed":
		p, err := decodePayload[ExecutionChangedPayload](env)
		if err != nil {
			return err
		}
		e.Targets = p.Targets

	case "instance.execution.removed":
		e.Removed = true
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
		return zero, domain.NewInternal("ACTION-DECODE-001", fmt.Sprintf("corrupted %s payload", env.EventType), err)
	}
	return decoded, nil
}

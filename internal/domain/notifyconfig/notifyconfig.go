// Package notifyconfig implements the SMTP and SMS configuration aggregates
// (spec.md §3.3, §4.3): add/change/activate/deactivate/remove, with
// activation idempotent when already active and an at-most-one-active
// config per instance.
package notifyconfig

import (
	"fmt"

	"github.com/iamcore/iamcore/internal/domain/base"
	"github.com/iamcore/iamcore/pkg/domain"
	esdomain "github.com/iamcore/iamcore/pkg/eventsourcing/domain"
)

const (
	SMTPAggregateType = "smtp_config"
	SMSAggregateType   = "sms_config"
)

type State string

const (
	StateUnspecified State = "UNSPECIFIED"
	StateActive      State = "ACTIVE"
	StateInactive    State = "INACTIVE"
	StateRemoved     State = "REMOVED"
)

// SMTPConfig is the reduced state of one SMTP configuration.
type SMTPConfig struct {
	base.Aggregate

	Host     string
	Port     int
	User     string
	Password string
	State    State
}

func newSMTPConfig(instanceID, id string) *SMTPConfig {
	c := &SMTPConfig{Aggregate: base.NewAggregate(SMTPAggregateType, instanceID, id)}
	c.SetApplier(c.apply)
	return c
}

func ReduceSMTP(instanceID, id string, events []esdomain.EventEnvelope[any]) (*SMTPConfig, error) {
	c := newSMTPConfig(instanceID, id)
	for _, env := range events {
		if err := c.apply(env); err != nil {
			return nil, fmt.Errorf("reduce smtp config %s: %w", id, err)
		}
		c.Observe(env)
	}
	return c, nil
}

func (c *SMTPConfig) apply(env esdomain.EventEnvelope[any]) error {
	switch env.EventType {
	case "smtp_config.added":
		p, err := decodePayload[SMTPAddedPayload](env)
		if err != nil {
			return err
		}
		c.Host, c.Port, c.User, c.Password = p.Host, p.Port, p.User, p.Password
		c.State = StateInactive

	case "smtp_config.changed":
		p, err := decodePayload[SMTPAddedPayload](env)
		if err != nil {
			return err
		}
		c.Host, c.Port, c.User, c.Password = p.Host, p.Port, p.User, p.Password

	case "smtp_config.activated":
		c.State = StateActive

	case "smtp_config.deactivated":
		c.State = StateInactive

	case "smtp_config.removed":
		c.State = StateRemoved
	}
	return nil
}

// SMSConfig is the reduced state of one SMS configuration (Twilio or
// generic HTTP provider, per §4.3's "add (twilio/http for SMS)").
type SMSConfig struct {
	base.Aggregate

	Provider string // "twilio" | "http"
	Settings map[string]any
	State    State
}

func newSMSConfig(instanceID, id string) *SMSConfig {
	c := &SMSConfig{Aggregate: base.NewAggregate(SMSAggregateType, instanceID, id), Settings: make(map[string]any)}
	c.SetApplier(c.apply)
	return c
}

func ReduceSMS(instanceID, id string, events []esdomain.EventEnvelope[any]) (*SMSConfig, error) {
	c := newSMSConfig(instanceID, id)
	for _, env := range events {
		if err := c.apply(env); err != nil {
			return nil, fmt.Errorf("reduce sms config %s: %w", id, err)
		}
		c.Observe(env)
	}
	return c, nil
}

func (c *SMSConfig) apply(env esdomain.EventEnvelope[any]) error {
	switch env.EventType {
	case "sms_config.added":
		p, err := decodePayload[SMSAddedPayload](env)
		if err != nil {
			return err
		}
		c.Provider = p.Provider
		c.Settings = p.Settings
		c.State = StateInactive

	case "sms_config.changed":
		p, err := decodePayload[SMSAddedPayload](env)
		if err != nil {
			return err
		}
		c.Settings = p.Settings

	case "sms_config.activated":
		c.State = StateActive

	case "sms_config.deactivated":
		c.State = StateInactive

	case "sms_config.removed":
		c.State = StateRemoved
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
		return zero, domain.NewInternal("NOTIFYCFG-DECODE-001", fmt.Sprintf("corrupted %s payload", env.EventType), err)
	}
	return decoded, nil
}

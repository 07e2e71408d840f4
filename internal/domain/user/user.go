// Package user implements the User aggregate (spec.md §3.3, §4.2, §4.3, §9):
// a tagged variant over Human and Machine users sharing one reducer and one
// set of lifecycle events, with a profile/email/phone sub-record and a
// second-factor registry present only for Human users.
package user

import (
	"fmt"

	"github.com/iamcore/iamcore/internal/domain/base"
	"github.com/iamcore/iamcore/pkg/domain"
	esdomain "github.com/iamcore/iamcore/pkg/eventsourcing/domain"
)

const AggregateType = "user"

type Type string

const (
	TypeHuman   Type = "HUMAN"
	TypeMachine Type = "MACHINE"
)

type State string

const (
	StateUnspecified State = "UNSPECIFIED"
	StateActive      State = "ACTIVE"
	StateInitial     State = "INITIAL" // human only
	StateInactive    State = "INACTIVE"
	StateLocked      State = "LOCKED"
	StateDeleted     State = "DELETED"
)

// FactorType identifies a second-factor method. Every kind shares the same
// add/verify/check/remove lifecycle shape (spec.md §4.3); only TOTP is
// modeled as a representative instance here.
type FactorType string

const (
	FactorTOTP FactorType = "TOTP"
)

type Factor struct {
	Type     FactorType
	Verified bool
	Secret   string // opaque, provider-specific (e.g. TOTP shared secret)
}

// VerificationCode is a pending code for email/phone. It holds only the
// code; no expiry is stored or checked.
type VerificationCode struct {
	Code string
}

type User struct {
	base.Aggregate

	Type        Type
	State       State
	Username    string
	DisplayName string

	// Human-only fields.
	Email           string
	EmailVerified   bool
	PendingEmail    *VerificationCode
	Phone           string
	PhoneVerified   bool
	PendingPhone    *VerificationCode
	PasswordHash    string
	FailedAttempts  int
	Factors         map[FactorType]*Factor

	pendingEmailValue string
	pendingPhoneValue string
}

func newUser(instanceID, id string, typ Type) *User {
	u := &User{
		Aggregate: base.NewAggregate(AggregateType, instanceID, id),
		Type:      typ,
		Factors:   make(map[FactorType]*Factor),
	}
	u.SetApplier(u.apply)
	return u
}

// Reduce folds a historical event stream into a fresh User. An empty stream
// yields a User with Exists()==false, which command handlers treat as "not
// found" rather than an error here.
func Reduce(instanceID, id string, events []esdomain.EventEnvelope[any]) (*User, error) {
	u := newUser(instanceID, id, TypeHuman)
	for _, env := range events {
		if err := u.apply(env); err != nil {
			return nil, fmt.Errorf("reduce user %s: %w", id, err)
		}
		u.Observe(env)
	}
	return u, nil
}

func (u *User) apply(env esdomain.EventEnvelope[any]) error {
	switch env.EventType {
	case "user.human.added":
		p, err := decodePayload[HumanAddedPayload](env)
		if err != nil {
			return err
		}
		u.Type = TypeHuman
		u.Username = p.Username
		u.DisplayName = p.DisplayName
		u.Email = p.Email
		u.Phone = p.Phone
		u.PasswordHash = p.PasswordHash
		u.State = StateInitial

	case "user.machine.added":
		p, err := decodePayload[MachineAddedPayload](env)
		if err != nil {
			return err
		}
		u.Type = TypeMachine
		u.Username = p.Username
		u.DisplayName = p.DisplayName
		u.State = StateActive

	case "user.username.changed":
		p, err := decodePayload[UsernameChangedPayload](env)
		if err != nil {
			return err
		}
		u.Username = p.Username

	case "user.profile.changed":
		p, err := decodePayload[ProfileChangedPayload](env)
		if err != nil {
			return err
		}
		u.DisplayName = p.DisplayName

	case "user.email.change.code.added":
		p, err := decodePayload[EmailChangeCodeAddedPayload](env)
		if err != nil {
			return err
		}
		u.PendingEmail = &VerificationCode{Code: p.Code}
		u.pendingEmailValue = p.Email

	case "user.email.verified":
		u.EmailVerified = true
		if u.pendingEmailValue != "" {
			u.Email = u.pendingEmailValue
		}
		u.PendingEmail = nil
		u.pendingEmailValue = ""

	case "user.email.verify.check.failed":
		// No state change; recorded for projection-level failure tracking.

	case "user.phone.change.code.added":
		p, err := decodePayload[PhoneChangeCodeAddedPayload](env)
		if err != nil {
			return err
		}
		u.PendingPhone = &VerificationCode{Code: p.Code}
		u.pendingPhoneValue = p.Phone

	case "user.phone.verified":
		u.PhoneVerified = true
		if u.pendingPhoneValue != "" {
			u.Phone = u.pendingPhoneValue
		}
		u.PendingPhone = nil
		u.pendingPhoneValue = ""

	case "user.phone.verify.check.failed":

	case "user.password.changed":
		p, err := decodePayload[PasswordChangedPayload](env)
		if err != nil {
			return err
		}
		u.PasswordHash = p.PasswordHash

	case "user.locked":
		u.State = StateLocked

	case "user.unlocked":
		u.State = StateActive

	case "user.deactivated":
		u.State = StateInactive

	case "user.reactivated":
		u.State = StateActive

	case "user.removed":
		u.State = StateDeleted

	case "user.human.totp.added":
		u.Factors[FactorTOTP] = &Factor{Type: FactorTOTP}

	case "user.human.totp.verified":
		if f, ok := u.Factors[FactorTOTP]; ok {
			f.Verified = true
		}

	case "user.human.totp.removed":
		delete(u.Factors, FactorTOTP)
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
		return zero, domain.NewInternal("USER-DECODE-001", fmt.Sprintf("corrupted %s payload", env.EventType), err)
	}
	return decoded, nil
}

// Package session implements the Session aggregate (spec.md §3.3, §4.2,
// §4.3): classic and OIDC-with-PKCE session creation, token/AMR/authTime
// updates, and termination. Global termination (by user, by org, or
// backchannel-by-client) fans out to many session aggregates and is a
// command-handler concern, not something a single aggregate can express.
package session

import (
	"fmt"

	"github.com/iamcore/iamcore/internal/domain/base"
	"github.com/iamcore/iamcore/pkg/domain"
	esdomain "github.com/iamcore/iamcore/pkg/eventsourcing/domain"
)

const AggregateType = "session"

type State string

const (
	StateUnspecified State = "UNSPECIFIED"
	StateActive      State = "ACTIVE"
	StateTerminated  State = "TERMINATED"
)

type Session struct {
	base.Aggregate

	UserID      string
	OrgID       string
	State       State
	Factors     map[string]bool // auth-method type -> verified, at most one per type (§3.3)
	TokenIDs    []string
	AMR         []string
	AuthTime    int64 // unix millis; 0 means unset

	CodeChallenge       string
	CodeChallengeMethod string
}

func newSession(instanceID, id, userID, orgID string) *Session {
	s := &Session{
		Aggregate: base.NewAggregate(AggregateType, instanceID, id),
		UserID:    userID,
		OrgID:     orgID,
		Factors:   make(map[string]bool),
	}
	s.SetApplier(s.apply)
	return s
}

func Reduce(instanceID, id string, events []esdomain.EventEnvelope[any]) (*Session, error) {
	s := newSession(instanceID, id, "", "")
	for _, env := range events {
		if err := s.apply(env); err != nil {
			return nil, fmt.Errorf("reduce session %s: %w", id, err)
		}
		s.Observe(env)
	}
	return s, nil
}

func (s *Session) apply(env esdomain.EventEnvelope[any]) error {
	switch env.EventType {
	case "session.added":
		p, err := decodePayload[AddedPayload](env)
		if err != nil {
			return err
		}
		s.UserID = p.UserID
		s.OrgID = p.OrgID
		s.CodeChallenge = p.CodeChallenge
		s.CodeChallengeMethod = p.CodeChallengeMethod
		s.State = StateActive

	case "session.factor.verified":
		p, err := decodePayload[FactorVerifiedPayload](env)
		if err != nil {
			return err
		}
		s.Factors[p.Method] = true
		s.AMR = append(s.AMR, p.Method)

	case "session.tokens.updated":
		p, err := decodePayload[TokensUpdatedPayload](env)
		if err != nil {
			return err
		}
		s.TokenIDs = p.TokenIDs

	case "session.auth_time.updated":
		p, err := decodePayload[AuthTimeUpdatedPayload](env)
		if err != nil {
			return err
		}
		s.AuthTime = p.AuthTime

	case "session.terminated":
		s.State = StateTerminated
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
		return zero, domain.NewInternal("SESSION-DECODE-001", fmt.Sprintf("corrupted %s payload", env.EventType), err)
	}
	return decoded, nil
}

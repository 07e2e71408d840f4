// Package application implements the Application aggregate (spec.md §3.3,
// §4.2, §4.3): a tagged variant over OIDC, API, and SAML applications
// sharing state/lifecycle, each with its own config sub-record. Client ID
// and SAML entity ID uniqueness is a cross-aggregate invariant enforced by
// the command handler against a uniqueness side-table (§6.3's
// `unique_constraints`), not by the aggregate itself.
package application

import (
	"fmt"

	"github.com/iamcore/iamcore/internal/domain/base"
	"github.com/iamcore/iamcore/pkg/domain"
	esdomain "github.com/iamcore/iamcore/pkg/eventsourcing/domain"
)

const AggregateType = "project.application"

type Type string

const (
	TypeOIDC Type = "OIDC"
	TypeAPI  Type = "API"
	TypeSAML Type = "SAML"
)

type State string

const (
	StateUnspecified State = "UNSPECIFIED"
	StateActive      State = "ACTIVE"
	StateInactive    State = "INACTIVE"
	StateRemoved     State = "REMOVED"
)

type AuthMethod string

const (
	AuthMethodNone           AuthMethod = "NONE"
	AuthMethodBasic          AuthMethod = "BASIC"
	AuthMethodPrivateKeyJWT  AuthMethod = "PRIVATE_KEY_JWT"
)

// OIDCConfig is populated only when Type == TypeOIDC.
type OIDCConfig struct {
	AppType      string
	RedirectURIs []string
	AuthMethod   AuthMethod
}

// APIConfig is populated only when Type == TypeAPI.
type APIConfig struct {
	AuthMethod AuthMethod
}

// SAMLConfig is populated only when Type == TypeSAML.
type SAMLConfig struct {
	EntityID    string
	Metadata    string
	MetadataURL string
}

type Application struct {
	base.Aggregate

	ProjectID string
	Type      Type
	State     State
	ClientID  string

	OIDC *OIDCConfig
	API  *APIConfig
	SAML *SAMLConfig
}

func newApplication(instanceID, id, projectID string) *Application {
	a := &Application{
		Aggregate: base.NewAggregate(AggregateType, instanceID, id),
		ProjectID: projectID,
	}
	a.SetApplier(a.apply)
	return a
}

// Reduce folds a historical event stream into a fresh Application.
func Reduce(instanceID, id string, events []esdomain.EventEnvelope[any]) (*Application, error) {
	a := newApplication(instanceID, id, "")
	for _, env := range events {
		if err := a.apply(env); err != nil {
			return nil, fmt.Errorf("reduce application %s: %w", id, err)
		}
		a.Observe(env)
	}
	return a, nil
}

func (a *Application) apply(env esdomain.EventEnvelope[any]) error {
	switch env.EventType {
	case "project.application.oidc.added":
		p, err := decodePayload[OIDCAddedPayload](env)
		if err != nil {
			return err
		}
		a.ProjectID = p.ProjectID
		a.Type = TypeOIDC
		a.ClientID = p.ClientID
		a.OIDC = &OIDCConfig{AppType: p.AppType, RedirectURIs: p.RedirectURIs, AuthMethod: p.AuthMethod}
		a.State = StateActive

	case "project.application.oidc.config.changed":
		p, err := decodePayload[OIDCConfigChangedPayload](env)
		if err != nil {
			return err
		}
		if a.OIDC != nil {
			a.OIDC.AppType = p.AppType
			a.OIDC.RedirectURIs = p.RedirectURIs
		}

	case "project.application.api.added":
		p, err := decodePayload[APIAddedPayload](env)
		if err != nil {
			return err
		}
		a.ProjectID = p.ProjectID
		a.Type = TypeAPI
		a.ClientID = p.ClientID
		a.API = &APIConfig{AuthMethod: p.AuthMethod}
		a.State = StateActive

	case "project.application.saml.added":
		p, err := decodePayload[SAMLAddedPayload](env)
		if err != nil {
			return err
		}
		a.ProjectID = p.ProjectID
		a.Type = TypeSAML
		a.SAML = &SAMLConfig{EntityID: p.EntityID, Metadata: p.Metadata, MetadataURL: p.MetadataURL}
		a.State = StateActive

	case "project.application.saml.config.changed":
		p, err := decodePayload[SAMLConfigChangedPayload](env)
		if err != nil {
			return err
		}
		if a.SAML != nil {
			a.SAML.Metadata = p.Metadata
			a.SAML.MetadataURL = p.MetadataURL
		}

	case "project.application.auth_method.changed":
		p, err := decodePayload[AuthMethodChangedPayload](env)
		if err != nil {
			return err
		}
		switch a.Type {
		case TypeOIDC:
			if a.OIDC != nil {
				a.OIDC.AuthMethod = p.AuthMethod
			}
		case TypeAPI:
			if a.API != nil {
				a.API.AuthMethod = p.AuthMethod
			}
		}

	case "project.application.deactivated":
		a.State = StateInactive

	case "project.application.reactivated":
		a.State = StateActive

	case "project.application.removed":
		a.State = StateRemoved
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
		return zero, domain.NewInternal("APP-DECODE-001", fmt.Sprintf("corrupted %s payload", env.EventType), err)
	}
	return decoded, nil
}

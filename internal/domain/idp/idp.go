// Package idp implements the IDP aggregate (spec.md §3.3, §4.3): OIDC, JWT,
// and SAML external identity providers at instance or org scope, sharing
// one removeIDP command regardless of type.
package idp

import (
	"fmt"

	"github.com/iamcore/iamcore/internal/domain/base"
	"github.com/iamcore/iamcore/pkg/domain"
	esdomain "github.com/iamcore/iamcore/pkg/eventsourcing/domain"
)

const AggregateType = "idp"

type Type string

const (
	TypeOIDC Type = "OIDC"
	TypeJWT  Type = "JWT"
	TypeSAML Type = "SAML"
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

type OIDCConfig struct {
	IssuerURL    string
	ClientID     string
	ClientSecret string
}

type JWTConfig struct {
	JWTEndpoint  string
	KeysEndpoint string
	HeaderName   string
}

type SAMLConfig struct {
	Metadata    string
	MetadataURL string
}

type IDP struct {
	base.Aggregate

	Type    Type
	Scope   Scope
	ScopeID string
	State   State

	OIDC *OIDCConfig
	JWT  *JWTConfig
	SAML *SAMLConfig
}

func newIDP(instanceID, id string) *IDP {
	i := &IDP{Aggregate: base.NewAggregate(AggregateType, instanceID, id)}
	i.SetApplier(i.apply)
	return i
}

func Reduce(instanceID, id string, events []esdomain.EventEnvelope[any]) (*IDP, error) {
	i := newIDP(instanceID, id)
	for _, env := range events {
		if err := i.apply(env); err != nil {
			return nil, fmt.Errorf("reduce idp %s: %w", id, err)
		}
		i.Observe(env)
	}
	return i, nil
}

func (i *IDP) apply(env esdomain.EventEnvelope[any]) error {
	switch env.EventType {
	case "idp.oidc.added":
		p, err := decodePayload[OIDCAddedPayload](env)
		if err != nil {
			return err
		}
		i.Type = TypeOIDC
		i.Scope = p.Scope
		i.ScopeID = p.ScopeID
		i.OIDC = &OIDCConfig{IssuerURL: p.IssuerURL, ClientID: p.ClientID, ClientSecret: p.ClientSecret}
		i.State = StateActive

	case "idp.oidc.changed":
		p, err := decodePayload[OIDCChangedPayload](env)
		if err != nil {
			return err
		}
		if i.OIDC != nil {
			i.OIDC.IssuerURL = p.IssuerURL
			i.OIDC.ClientID = p.ClientID
		}

	case "idp.jwt.added":
		p, err := decodePayload[JWTAddedPayload](env)
		if err != nil {
			return err
		}
		i.Type = TypeJWT
		i.Scope = p.Scope
		i.ScopeID = p.ScopeID
		i.JWT = &JWTConfig{JWTEndpoint: p.JWTEndpoint, KeysEndpoint: p.KeysEndpoint, HeaderName: p.HeaderName}
		i.State = StateActive

	case "idp.jwt.changed":
		p, err := decodePayload[JWTChangedPayload](env)
		if err != nil {
			return err
		}
		if i.JWT != nil {
			i.JWT.JWTEndpoint = p.JWTEndpoint
			i.JWT.KeysEndpoint = p.KeysEndpoint
			i.JWT.HeaderName = p.HeaderName
		}

	case "idp.saml.added":
		p, err := decodePayload[SAMLAddedPayload](env)
		if err != nil {
			return err
		}
		i.Type = TypeSAML
		i.Scope = p.Scope
		i.ScopeID = p.ScopeID
		i.SAML = &SAMLConfig{Metadata: p.Metadata, MetadataURL: p.MetadataURL}
		i.State = StateActive

	case "idp.saml.changed":
		p, err := decodePayload[SAMLChangedPayload](env)
		if err != nil {
			return err
		}
		if i.SAML != nil {
			i.SAML.Metadata = p.Metadata
			i.SAML.MetadataURL = p.MetadataURL
		}

	case "idp.removed":
		i.State = StateRemoved
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
		return zero, domain.NewInternal("IDP-DECODE-001", fmt.Sprintf("corrupted %s payload", env.EventType), err)
	}
	return decoded, nil
}

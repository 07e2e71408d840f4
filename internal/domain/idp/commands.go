package idp

import "github.com/iamcore/iamcore/pkg/domain"

func AddOIDC(instanceID, id string, scope Scope, scopeID, issuerURL, clientID, clientSecret, editorUser string) (*IDP, error) {
	if issuerURL == "" {
		return nil, domain.NewInvalidArgument("IDP-OIDC-001", "issuer url is required")
	}
	if clientID == "" {
		return nil, domain.NewInvalidArgument("IDP-OIDC-002", "client id is required")
	}
	i := newIDP(instanceID, id)
	i.Record("idp.oidc.added", 1, OIDCAddedPayload{
		Scope: scope, ScopeID: scopeID, IssuerURL: issuerURL, ClientID: clientID, ClientSecret: clientSecret,
	}, editorUser, scopeID)
	return i, nil
}

func AddJWT(instanceID, id string, scope Scope, scopeID, jwtEndpoint, keysEndpoint, headerName, editorUser string) (*IDP, error) {
	if jwtEndpoint == "" || keysEndpoint == "" {
		return nil, domain.NewInvalidArgument("IDP-JWT-001", "jwt and keys endpoints are required")
	}
	i := newIDP(instanceID, id)
	i.Record("idp.jwt.added", 1, JWTAddedPayload{
		Scope: scope, ScopeID: scopeID, JWTEndpoint: jwtEndpoint, KeysEndpoint: keysEndpoint, HeaderName: headerName,
	}, editorUser, scopeID)
	return i, nil
}

// AddSAML requires metadata OR metadataURL, not neither (§3.3, same rule as
// the SAML application).
func AddSAML(instanceID, id string, scope Scope, scopeID, metadata, metadataURL, editorUser string) (*IDP, error) {
	if metadata == "" && metadataURL == "" {
		return nil, domain.NewInvalidArgument("IDP-SAML-001", "either metadata or metadataURL is required")
	}
	i := newIDP(instanceID, id)
	i.Record("idp.saml.added", 1, SAMLAddedPayload{
		Scope: scope, ScopeID: scopeID, Metadata: metadata, MetadataURL: metadataURL,
	}, editorUser, scopeID)
	return i, nil
}

func (i *IDP) notFoundIfMissing() error {
	if !i.Exists() || i.State == StateRemoved {
		return domain.NewNotFound("IDP-002", "idp not found")
	}
	return nil
}

func (i *IDP) ChangeOIDC(issuerURL, clientID, editorUser string) error {
	if err := i.notFoundIfMissing(); err != nil {
		return err
	}
	if i.Type != TypeOIDC {
		return domain.NewInvalidArgument("IDP-OIDC-003", "not an OIDC idp")
	}
	if issuerURL == "" {
		return domain.NewInvalidArgument("IDP-OIDC-001", "issuer url is required")
	}
	if i.OIDC.IssuerURL == issuerURL && i.OIDC.ClientID == clientID {
		return nil
	}
	i.Record("idp.oidc.changed", 1, OIDCChangedPayload{IssuerURL: issuerURL, ClientID: clientID}, editorUser, i.ScopeID)
	return nil
}

func (i *IDP) ChangeJWT(jwtEndpoint, keysEndpoint, headerName, editorUser string) error {
	if err := i.notFoundIfMissing(); err != nil {
		return err
	}
	if i.Type != TypeJWT {
		return domain.NewInvalidArgument("IDP-JWT-002", "not a JWT idp")
	}
	if jwtEndpoint == "" || keysEndpoint == "" {
		return domain.NewInvalidArgument("IDP-JWT-001", "jwt and keys endpoints are required")
	}
	if i.JWT.JWTEndpoint == jwtEndpoint && i.JWT.KeysEndpoint == keysEndpoint && i.JWT.HeaderName == headerName {
		return nil
	}
	i.Record("idp.jwt.changed", 1, JWTChangedPayload{JWTEndpoint: jwtEndpoint, KeysEndpoint: keysEndpoint, HeaderName: headerName}, editorUser, i.ScopeID)
	return nil
}

func (i *IDP) ChangeSAML(metadata, metadataURL, editorUser string) error {
	if err := i.notFoundIfMissing(); err != nil {
		return err
	}
	if i.Type != TypeSAML {
		return domain.NewInvalidArgument("IDP-SAML-002", "not a SAML idp")
	}
	if metadata == "" && metadataURL == "" {
		return domain.NewInvalidArgument("IDP-SAML-001", "either metadata or metadataURL is required")
	}
	if i.SAML.Metadata == metadata && i.SAML.MetadataURL == metadataURL {
		return nil
	}
	i.Record("idp.saml.changed", 1, SAMLChangedPayload{Metadata: metadata, MetadataURL: metadataURL}, editorUser, i.ScopeID)
	return nil
}

// RemoveIDP is the shared removal command for any IDP type (§4.3).
func (i *IDP) RemoveIDP(editorUser string) error {
	if err := i.notFoundIfMissing(); err != nil {
		return err
	}
	i.Record("idp.removed", 1, struct{}{}, editorUser, i.ScopeID)
	return nil
}

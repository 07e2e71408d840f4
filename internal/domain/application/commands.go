package application

import "github.com/iamcore/iamcore/pkg/domain"

// AddOIDC creates an OIDC application. Non-native app types require at least
// one redirect URI (§3.3: "non-native OIDC requires ≥1 redirect URI").
func AddOIDC(instanceID, id, projectID, clientID, appType string, redirectURIs []string, authMethod AuthMethod, editorUser string) (*Application, error) {
	if clientID == "" {
		return nil, domain.NewInvalidArgument("APP-001", "client id is required")
	}
	if appType != "native" && len(redirectURIs) == 0 {
		return nil, domain.NewInvalidArgument("APP-OIDC-001", "non-native OIDC applications require at least one redirect URI")
	}
	a := newApplication(instanceID, id, projectID)
	a.Record("project.application.oidc.added", 1, OIDCAddedPayload{
		ProjectID: projectID, ClientID: clientID, AppType: appType, RedirectURIs: redirectURIs, AuthMethod: authMethod,
	}, editorUser, projectID)
	return a, nil
}

func AddAPI(instanceID, id, projectID, clientID string, authMethod AuthMethod, editorUser string) (*Application, error) {
	if clientID == "" {
		return nil, domain.NewInvalidArgument("APP-001", "client id is required")
	}
	if authMethod == AuthMethodNone {
		return nil, domain.NewInvalidArgument("APP-API-001", "invalid auth method for API app")
	}
	a := newApplication(instanceID, id, projectID)
	a.Record("project.application.api.added", 1, APIAddedPayload{ProjectID: projectID, ClientID: clientID, AuthMethod: authMethod}, editorUser, projectID)
	return a, nil
}

// AddSAML creates a SAML application. At least one of metadata/metadataURL
// must be supplied; both may be given (§3.3: "SAML metadata OR metadataURL, not neither").
func AddSAML(instanceID, id, projectID, entityID, metadata, metadataURL string, editorUser string) (*Application, error) {
	if entityID == "" {
		return nil, domain.NewInvalidArgument("APP-SAML-001", "entity id is required")
	}
	if metadata == "" && metadataURL == "" {
		return nil, domain.NewInvalidArgument("APP-SAML-002", "either metadata or metadataURL is required")
	}
	a := newApplication(instanceID, id, projectID)
	a.Record("project.application.saml.added", 1, SAMLAddedPayload{ProjectID: projectID, EntityID: entityID, Metadata: metadata, MetadataURL: metadataURL}, editorUser, projectID)
	return a, nil
}

func (a *Application) notFoundIfMissing() error {
	if !a.Exists() || a.State == StateRemoved {
		return domain.NewNotFound("APP-002", "application not found")
	}
	return nil
}

func (a *Application) ChangeOIDCConfig(appType string, redirectURIs []string, editorUser string) error {
	if err := a.notFoundIfMissing(); err != nil {
		return err
	}
	if a.Type != TypeOIDC {
		return domain.NewInvalidArgument("APP-OIDC-002", "not an OIDC application")
	}
	if appType != "native" && len(redirectURIs) == 0 {
		return domain.NewInvalidArgument("APP-OIDC-001", "non-native OIDC applications require at least one redirect URI")
	}
	if a.OIDC.AppType == appType && sameStrings(a.OIDC.RedirectURIs, redirectURIs) {
		return nil
	}
	a.Record("project.application.oidc.config.changed", 1, OIDCConfigChangedPayload{AppType: appType, RedirectURIs: redirectURIs}, editorUser, a.ProjectID)
	return nil
}

func (a *Application) ChangeSAMLConfig(metadata, metadataURL, editorUser string) error {
	if err := a.notFoundIfMissing(); err != nil {
		return err
	}
	if a.Type != TypeSAML {
		return domain.NewInvalidArgument("APP-SAML-003", "not a SAML application")
	}
	if metadata == "" && metadataURL == "" {
		return domain.NewInvalidArgument("APP-SAML-002", "either metadata or metadataURL is required")
	}
	if a.SAML.Metadata == metadata && a.SAML.MetadataURL == metadataURL {
		return nil
	}
	a.Record("project.application.saml.config.changed", 1, SAMLConfigChangedPayload{Metadata: metadata, MetadataURL: metadataURL}, editorUser, a.ProjectID)
	return nil
}

// ChangeAPIAppAuthMethod enforces the two decision examples from spec.md
// §4.3: NONE is invalid for an API app, and this command is rejected outright
// on a non-API app.
func (a *Application) ChangeAPIAppAuthMethod(authMethod AuthMethod, editorUser string) error {
	if err := a.notFoundIfMissing(); err != nil {
		return err
	}
	if a.Type != TypeAPI {
		return domain.NewInvalidArgument("APP-API-002", "not an API application")
	}
	if authMethod == AuthMethodNone {
		return domain.NewInvalidArgument("APP-API-001", "invalid auth method for API app")
	}
	if a.API.AuthMethod == authMethod {
		return nil
	}
	a.Record("project.application.auth_method.changed", 1, AuthMethodChangedPayload{AuthMethod: authMethod}, editorUser, a.ProjectID)
	return nil
}

func (a *Application) Deactivate(editorUser string) error {
	if err := a.notFoundIfMissing(); err != nil {
		return err
	}
	if a.State != StateActive {
		return domain.NewFailedPrecondition("APP-004", "application is not active")
	}
	a.Record("project.application.deactivated", 1, struct{}{}, editorUser, a.ProjectID)
	return nil
}

func (a *Application) Reactivate(editorUser string) error {
	if err := a.notFoundIfMissing(); err != nil {
		return err
	}
	if a.State != StateInactive {
		return domain.NewFailedPrecondition("APP-003", "application is not inactive")
	}
	a.Record("project.application.reactivated", 1, struct{}{}, editorUser, a.ProjectID)
	return nil
}

func (a *Application) Remove(editorUser string) error {
	if err := a.notFoundIfMissing(); err != nil {
		return err
	}
	a.Record("project.application.removed", 1, struct{}{}, editorUser, a.ProjectID)
	return nil
}

func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Package clientapp wires the Application aggregate (internal/domain/
// application) into the command/query buses. Named clientapp, not
// application, so it can sit next to an import of pkg/application without a
// name clash.
package clientapp

import (
	appdomain "github.com/iamcore/iamcore/internal/domain/application"
	"github.com/iamcore/iamcore/pkg/application"
)

type AddOIDCAppCommand struct {
	InstanceID   string               `json:"instanceId"`
	ID           string               `json:"id"`
	ProjectID    string               `json:"projectId"`
	ClientID     string               `json:"clientId"`
	AppType      string               `json:"appType"`
	RedirectURIs []string             `json:"redirectUris"`
	AuthMethod   appdomain.AuthMethod `json:"authMethod"`
	EditorUser   string               `json:"editorUser"`
}

func (c AddOIDCAppCommand) CommandType() string { return "clientapp.AddOIDC" }

func (c AddOIDCAppCommand) Validate() error {
	if c.ClientID == "" {
		return application.NewValidationError("clientId", "clientId must not be empty")
	}
	return nil
}

type AddAPIAppCommand struct {
	InstanceID string               `json:"instanceId"`
	ID         string               `json:"id"`
	ProjectID  string               `json:"projectId"`
	ClientID   string               `json:"clientId"`
	AuthMethod appdomain.AuthMethod `json:"authMethod"`
	EditorUser string               `json:"editorUser"`
}

func (c AddAPIAppCommand) CommandType() string { return "clientapp.AddAPI" }

type AddSAMLAppCommand struct {
	InstanceID  string `json:"instanceId"`
	ID          string `json:"id"`
	ProjectID   string `json:"projectId"`
	EntityID    string `json:"entityId"`
	Metadata    string `json:"metadata"`
	MetadataURL string `json:"metadataUrl"`
	EditorUser  string `json:"editorUser"`
}

func (c AddSAMLAppCommand) CommandType() string { return "clientapp.AddSAML" }

type ChangeOIDCAppConfigCommand struct {
	InstanceID   string   `json:"instanceId"`
	ID           string   `json:"id"`
	AppType      string   `json:"appType"`
	RedirectURIs []string `json:"redirectUris"`
	EditorUser   string   `json:"editorUser"`
}

func (c ChangeOIDCAppConfigCommand) CommandType() string { return "clientapp.ChangeOIDCConfig" }

type ChangeSAMLAppConfigCommand struct {
	InstanceID  string `json:"instanceId"`
	ID          string `json:"id"`
	Metadata    string `json:"metadata"`
	MetadataURL string `json:"metadataUrl"`
	EditorUser  string `json:"editorUser"`
}

func (c ChangeSAMLAppConfigCommand) CommandType() string { return "clientapp.ChangeSAMLConfig" }

type ChangeAPIAppAuthMethodCommand struct {
	InstanceID string               `json:"instanceId"`
	ID         string               `json:"id"`
	AuthMethod appdomain.AuthMethod `json:"authMethod"`
	EditorUser string               `json:"editorUser"`
}

func (c ChangeAPIAppAuthMethodCommand) CommandType() string { return "clientapp.ChangeAPIAuthMethod" }

type DeactivateAppCommand struct {
	InstanceID string `json:"instanceId"`
	ID         string `json:"id"`
	EditorUser string `json:"editorUser"`
}

func (c DeactivateAppCommand) CommandType() string { return "clientapp.Deactivate" }

type ReactivateAppCommand struct {
	InstanceID string `json:"instanceId"`
	ID         string `json:"id"`
	EditorUser string `json:"editorUser"`
}

func (c ReactivateAppCommand) CommandType() string { return "clientapp.Reactivate" }

type RemoveAppCommand struct {
	InstanceID string `json:"instanceId"`
	ID         string `json:"id"`
	EditorUser string `json:"editorUser"`
}

func (c RemoveAppCommand) CommandType() string { return "clientapp.Remove" }

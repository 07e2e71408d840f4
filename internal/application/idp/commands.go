package idp

import idpdomain "github.com/iamcore/iamcore/internal/domain/idp"

type AddOIDCIDPCommand struct {
	InstanceID   string          `json:"instanceId"`
	ID           string          `json:"id"`
	Scope        idpdomain.Scope `json:"scope"`
	ScopeID      string          `json:"scopeId"`
	IssuerURL    string          `json:"issuerUrl"`
	ClientID     string          `json:"clientId"`
	ClientSecret string          `json:"clientSecret"`
	EditorUser   string          `json:"editorUser"`
}

func (c AddOIDCIDPCommand) CommandType() string { return "idp.AddOIDC" }

type AddJWTIDPCommand struct {
	InstanceID   string          `json:"instanceId"`
	ID           string          `json:"id"`
	Scope        idpdomain.Scope `json:"scope"`
	ScopeID      string          `json:"scopeId"`
	JWTEndpoint  string          `json:"jwtEndpoint"`
	KeysEndpoint string          `json:"keysEndpoint"`
	HeaderName   string          `json:"headerName"`
	EditorUser   string          `json:"editorUser"`
}

func (c AddJWTIDPCommand) CommandType() string { return "idp.AddJWT" }

type AddSAMLIDPCommand struct {
	InstanceID  string          `json:"instanceId"`
	ID          string          `json:"id"`
	Scope       idpdomain.Scope `json:"scope"`
	ScopeID     string          `json:"scopeId"`
	Metadata    string          `json:"metadata"`
	MetadataURL string          `json:"metadataUrl"`
	EditorUser  string          `json:"editorUser"`
}

func (c AddSAMLIDPCommand) CommandType() string { return "idp.AddSAML" }

type ChangeOIDCIDPCommand struct {
	InstanceID string `json:"instanceId"`
	ID         string `json:"id"`
	IssuerURL  string `json:"issuerUrl"`
	ClientID   string `json:"clientId"`
	EditorUser string `json:"editorUser"`
}

func (c ChangeOIDCIDPCommand) CommandType() string { return "idp.ChangeOIDC" }

type ChangeJWTIDPCommand struct {
	InstanceID   string `json:"instanceId"`
	ID           string `json:"id"`
	JWTEndpoint  string `json:"jwtEndpoint"`
	KeysEndpoint string `json:"keysEndpoint"`
	HeaderName   string `json:"headerName"`
	EditorUser   string `json:"editorUser"`
}

func (c ChangeJWTIDPCommand) CommandType() string { return "idp.ChangeJWT" }

type ChangeSAMLIDPCommand struct {
	InstanceID  string `json:"instanceId"`
	ID          string `json:"id"`
	Metadata    string `json:"metadata"`
	MetadataURL string `json:"metadataUrl"`
	EditorUser  string `json:"editorUser"`
}

func (c ChangeSAMLIDPCommand) CommandType() string { return "idp.ChangeSAML" }

type RemoveIDPCommand struct {
	InstanceID string `json:"instanceId"`
	ID         string `json:"id"`
	EditorUser string `json:"editorUser"`
}

func (c RemoveIDPCommand) CommandType() string { return "idp.Remove" }

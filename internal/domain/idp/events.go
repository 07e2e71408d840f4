package idp

type OIDCAddedPayload struct {
	Scope        Scope  `json:"scope"`
	ScopeID      string `json:"scopeId"`
	IssuerURL    string `json:"issuerUrl"`
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
}

type OIDCChangedPayload struct {
	IssuerURL string `json:"issuerUrl"`
	ClientID  string `json:"clientId"`
}

type JWTAddedPayload struct {
	Scope        Scope  `json:"scope"`
	ScopeID      string `json:"scopeId"`
	JWTEndpoint  string `json:"jwtEndpoint"`
	KeysEndpoint string `json:"keysEndpoint"`
	HeaderName   string `json:"headerName"`
}

type JWTChangedPayload struct {
	JWTEndpoint  string `json:"jwtEndpoint"`
	KeysEndpoint string `json:"keysEndpoint"`
	HeaderName   string `json:"headerName"`
}

type SAMLAddedPayload struct {
	Scope       Scope  `json:"scope"`
	ScopeID     string `json:"scopeId"`
	Metadata    string `json:"metadata"`
	MetadataURL string `json:"metadataUrl"`
}

type SAMLChangedPayload struct {
	Metadata    string `json:"metadata"`
	MetadataURL string `json:"metadataUrl"`
}

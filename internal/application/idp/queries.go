package idp

type GetIDPQuery struct {
	InstanceID string `json:"instanceId"`
	ID         string `json:"id"`
}

func (q GetIDPQuery) QueryType() string { return "idp.Get" }

type ListIDPsByScopeQuery struct {
	InstanceID string `json:"instanceId"`
	Scope      string `json:"scope"`
	ScopeID    string `json:"scopeId"`
}

func (q ListIDPsByScopeQuery) QueryType() string { return "idp.ListByScope" }

// IDPView is the caller-facing shape for an IDP; only the fields for its
// own Type are meaningful (mirrors AppView's per-type sparse-field shape).
type IDPView struct {
	ID           string
	Type         string
	Scope        string
	ScopeID      string
	State        string
	IssuerURL    string
	ClientID     string
	ClientSecret string
	JWTEndpoint  string
	KeysEndpoint string
	HeaderName   string
	Metadata     string
	MetadataURL  string
}

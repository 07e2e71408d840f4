package webkey

type GetWebKeyQuery struct {
	InstanceID string `json:"instanceId"`
	ID         string `json:"id"`
}

func (q GetWebKeyQuery) QueryType() string { return "webKey.Get" }

type ListActiveWebKeysQuery struct {
	InstanceID string `json:"instanceId"`
}

func (q ListActiveWebKeysQuery) QueryType() string { return "webKey.ListActive" }

type WebKeyView struct {
	ID        string
	State     string
	Algorithm string
	PublicJWK string
}

package webkey

import webkeydomain "github.com/iamcore/iamcore/internal/domain/webkey"

type GenerateWebKeyCommand struct {
	InstanceID string                 `json:"instanceId"`
	ID         string                 `json:"id"`
	Algorithm  webkeydomain.Algorithm `json:"algorithm"`
	PublicJWK  string                 `json:"publicJwk"`
	EditorUser string                 `json:"editorUser"`
}

func (c GenerateWebKeyCommand) CommandType() string { return "webKey.Generate" }

type ActivateWebKeyCommand struct {
	InstanceID string `json:"instanceId"`
	ID         string `json:"id"`
	EditorUser string `json:"editorUser"`
}

func (c ActivateWebKeyCommand) CommandType() string { return "webKey.Activate" }

type DeactivateWebKeyCommand struct {
	InstanceID string `json:"instanceId"`
	ID         string `json:"id"`
	EditorUser string `json:"editorUser"`
}

func (c DeactivateWebKeyCommand) CommandType() string { return "webKey.Deactivate" }

type RemoveWebKeyCommand struct {
	InstanceID string `json:"instanceId"`
	ID         string `json:"id"`
	EditorUser string `json:"editorUser"`
}

func (c RemoveWebKeyCommand) CommandType() string { return "webKey.Remove" }

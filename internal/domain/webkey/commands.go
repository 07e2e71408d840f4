package webkey

import "github.com/iamcore/iamcore/pkg/domain"

// Generate creates a new web key in INITIAL state. publicJWK is produced by
// an injected key-material capability (§6.2) — the aggregate only records
// the already-generated material, never performs cryptographic generation
// itself.
func Generate(instanceID, id string, algorithm Algorithm, publicJWK, editorUser string) (*WebKey, error) {
	if publicJWK == "" {
		return nil, domain.NewInvalidArgument("WEBKEY-001", "public jwk is required")
	}
	k := newWebKey(instanceID, id)
	k.Record("web_key.generated", 1, GeneratedPayload{Algorithm: algorithm, PublicJWK: publicJWK}, editorUser, id)
	return k, nil
}

func (k *WebKey) notFoundIfMissing() error {
	if !k.Exists() || k.State == StateRemoved {
		return domain.NewNotFound("WEBKEY-002", "web key not found")
	}
	return nil
}

func (k *WebKey) Activate(editorUser string) error {
	if err := k.notFoundIfMissing(); err != nil {
		return err
	}
	if k.State == StateActive {
		return domain.NewFailedPrecondition("WEBKEY-003", "web key is already active")
	}
	k.Record("web_key.activated", 1, struct{}{}, editorUser, k.GetID())
	return nil
}

func (k *WebKey) Deactivate(editorUser string) error {
	if err := k.notFoundIfMissing(); err != nil {
		return err
	}
	if k.State != StateActive {
		return domain.NewFailedPrecondition("WEBKEY-004", "web key is not active")
	}
	k.Record("web_key.deactivated", 1, struct{}{}, editorUser, k.GetID())
	return nil
}

func (k *WebKey) Remove(editorUser string) error {
	if err := k.notFoundIfMissing(); err != nil {
		return err
	}
	if k.State == StateActive {
		return domain.NewFailedPrecondition("WEBKEY-005", "an active web key cannot be removed")
	}
	k.Record("web_key.removed", 1, struct{}{}, editorUser, k.GetID())
	return nil
}

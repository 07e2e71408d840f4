package webkey

type GeneratedPayload struct {
	Algorithm Algorithm `json:"algorithm"`
	PublicJWK string    `json:"publicJwk"`
}

package types

// PermissionPayload mirrors card.PermissionSpec on the wire. Timestamps are
// RFC 3339; both bounds present means time-limited.
type PermissionPayload struct {
	Floors     []string `json:"floors"`
	Rooms      []string `json:"rooms,omitempty"`
	ValidFrom  string   `json:"valid_from,omitempty"`
	ValidUntil string   `json:"valid_until,omitempty"`
}

type CreateCardRequest struct {
	SerialNumber string            `json:"serial_number"`
	IssuerID     string            `json:"issuer_id"`
	Secure       bool              `json:"secure,omitempty"`
	Permission   PermissionPayload `json:"permission"`
}

// CreateCardResponse deliberately carries only the facade id — the real
// card identifier never leaves the engine.
type CreateCardResponse struct {
	OK        bool   `json:"ok"`
	FacadeID  string `json:"facade_id"`
	CreatedAt string `json:"created_at"`
}

type ModifyPermissionsRequest struct {
	FacadeID   string            `json:"facade_id"`
	Actor      string            `json:"actor,omitempty"`
	Permission PermissionPayload `json:"permission"`
}

type RevokeCardRequest struct {
	FacadeID string `json:"facade_id"`
	Actor    string `json:"actor,omitempty"`
}

type StatusResponse struct {
	OK bool `json:"ok"`
}

type TokenRequest struct {
	FacadeID string `json:"facade_id"`
}

type TokenResponse struct {
	OK        bool   `json:"ok"`
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

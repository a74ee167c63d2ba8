package models

// StoredCredential is the token bundle persisted in the secure store.
// All fields are optional; a credential is only persisted when at least one
// field is non-empty.
type StoredCredential struct {
	// IDToken identifies the user to the backend (sent as a bearer credential).
	IDToken string `json:"idToken,omitempty"`

	// AccessToken authorizes access to provider-side resources.
	AccessToken string `json:"accessToken,omitempty"`

	// RefreshMaterial is the long-lived grant used to mint fresh tokens.
	RefreshMaterial string `json:"refreshMaterial,omitempty"`
}

// IsEmpty reports whether every field is empty.
func (c StoredCredential) IsEmpty() bool {
	return c.IDToken == "" && c.AccessToken == "" && c.RefreshMaterial == ""
}

// Merge overlays non-empty fields of upd onto c and returns the result.
// Empty fields of upd never erase existing values.
func (c StoredCredential) Merge(upd StoredCredential) StoredCredential {
	out := c
	if upd.IDToken != "" {
		out.IDToken = upd.IDToken
	}
	if upd.AccessToken != "" {
		out.AccessToken = upd.AccessToken
	}
	if upd.RefreshMaterial != "" {
		out.RefreshMaterial = upd.RefreshMaterial
	}
	return out
}

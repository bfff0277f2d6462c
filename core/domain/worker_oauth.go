package domain

import "time"

// Credential is the OAuth credential a user granted for mailbox access.
// A zero Expiry means the provider never reported one.
type Credential struct {
	AccessToken     string    `json:"-"`
	RefreshToken    string    `json:"-"`
	Expiry          time.Time `json:"expires_at"`
	LastRefreshedAt time.Time `json:"last_refreshed_at"`
}

// ExpiryEpochMillis returns the expiry in unix milliseconds, or 0 when unset.
func (c *Credential) ExpiryEpochMillis() int64 {
	if c == nil || c.Expiry.IsZero() {
		return 0
	}
	return c.Expiry.UnixMilli()
}

// HasExpiry reports whether the provider supplied an expiry time.
func (c *Credential) HasExpiry() bool {
	return c != nil && !c.Expiry.IsZero()
}

// CredentialUpdate is a partial write to the user store.
// RefreshToken is nil when the stored refresh token must be kept.
type CredentialUpdate struct {
	AccessToken     string
	Expiry          time.Time
	LastRefreshedAt time.Time
	RefreshToken    *string
}

// Apply returns a copy of c with the update applied.
func (u CredentialUpdate) Apply(c Credential) Credential {
	c.AccessToken = u.AccessToken
	c.Expiry = u.Expiry
	c.LastRefreshedAt = u.LastRefreshedAt
	if u.RefreshToken != nil && *u.RefreshToken != "" {
		c.RefreshToken = *u.RefreshToken
	}
	return c
}

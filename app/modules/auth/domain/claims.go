package authdomain

import "time"

// Claims is the identity carried by an API token.
type Claims struct {
	UserID    string
	GuildID   string
	Role      Role
	TokenID   string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// IsExpired checks if the claims have expired.
func (c *Claims) IsExpired() bool {
	return time.Now().After(c.ExpiresAt)
}

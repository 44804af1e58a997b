package model

import "time"

// Client is a registered API consumer (clients table).
type Client struct {
	ClientID           string     `db:"client_id"`
	Name               string     `db:"name"`
	Email              string     `db:"email"`
	PasswordHash       string     `db:"password"` // bcrypt, never plaintext
	Environment        string     `db:"environment"`
	RequestLimitPerDay int        `db:"request_limit_per_day"`
	CreatedAt          time.Time  `db:"created_at"`
	UpdatedAt          *time.Time `db:"updated_at"` // nullable
	IsActive           bool       `db:"is_active"`
	Plan               string     `db:"plan"`

	// AllowedAPIs is the api_id projection of client_apis, sorted ascending.
	AllowedAPIs []string `db:"-"`
}

// APIGrant links a client to one API it may call (client_apis table).
type APIGrant struct {
	ID       int64  `db:"id"`
	ClientID string `db:"client_id"`
	APIID    string `db:"api_id"`
}

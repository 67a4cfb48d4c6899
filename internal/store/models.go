package store

import "time"

// Credentials are the OAuth tokens granted by one athlete
type Credentials struct {
	AthleteID    int64
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	AuthorizedAt time.Time // when the browser flow last completed
}

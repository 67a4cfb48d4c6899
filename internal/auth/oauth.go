// Package auth obtains and refreshes Strava API tokens.
package auth

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"
)

// Endpoint is Strava's OAuth endpoint. Client credentials go in the form body.
var Endpoint = oauth2.Endpoint{
	AuthURL:   "https://www.strava.com/oauth/authorize",
	TokenURL:  "https://www.strava.com/oauth/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

// scope covers private activities, their gear and starred segments. Strava
// takes it as one comma-separated value.
const scope = "read_all,activity:read_all,profile:read_all"

// RedirectURL points at the local callback server
var RedirectURL = fmt.Sprintf("http://localhost:%d/callback", CallbackPort)

// NewConfig returns the OAuth config for a Strava API application
func NewConfig(clientID, clientSecret string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     Endpoint,
		RedirectURL:  RedirectURL,
		Scopes:       []string{scope},
	}
}

// AuthResult is a completed authorization
type AuthResult struct {
	Token     *oauth2.Token
	AthleteID int64
}

// NewToken rebuilds a token from stored credentials
func NewToken(accessToken, refreshToken string, expiresAt time.Time) *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		Expiry:       expiresAt,
	}
}

// athleteID reads the athlete summary Strava sends alongside the tokens
func athleteID(token *oauth2.Token) (int64, error) {
	athlete, _ := token.Extra("athlete").(map[string]any)
	id, _ := athlete["id"].(float64)
	if id <= 0 {
		return 0, errors.New("token response names no athlete")
	}
	return int64(id), nil
}

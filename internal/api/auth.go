package api

import "context"

// Credentials are the learner's sign-in details.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Tokens is an access/refresh token pair.
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// User is the signed-in learner.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Level string `json:"level,omitempty"`
}

// Login exchanges credentials for tokens.
func (c *Client) Login(ctx context.Context, creds Credentials) (*Tokens, error) {
	var t Tokens
	if err := c.postJSONAuth(ctx, "login", "/auth/login", creds, &t, true); err != nil {
		return nil, err
	}
	return &t, nil
}

// RefreshTokens exchanges a refresh token for a new pair.
func (c *Client) RefreshTokens(ctx context.Context, refreshToken string) (*Tokens, error) {
	var t Tokens
	in := map[string]string{"refreshToken": refreshToken}
	if err := c.postJSONAuth(ctx, "refresh", "/auth/refresh", in, &t, true); err != nil {
		return nil, err
	}
	return &t, nil
}

// CurrentUser returns the learner the token belongs to.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var u User
	if err := c.get(ctx, "current user", "/auth/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

type RegisterRequest struct {
	Email          string `json:"email"`
	FullName       string `json:"full_name"`
	Role           Role   `json:"role"`
	Password       string `json:"password"`
	Specialization string `json:"specialization,omitempty"`
}

// loginResponse covers both the flat and the nested {user: {...}} login shapes,
// with the token under access_token or token.
type loginResponse struct {
	User        User
	AccessToken string
	Token       string
	Nested      *User
}

func (r *loginResponse) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &r.User); err != nil {
		return err
	}
	var rest struct {
		AccessToken string `json:"access_token"`
		Token       string `json:"token"`
		Nested      *User  `json:"user"`
	}
	if err := json.Unmarshal(data, &rest); err != nil {
		return err
	}
	r.AccessToken, r.Token, r.Nested = rest.AccessToken, rest.Token, rest.Nested
	return nil
}

// Login exchanges credentials, passed as query parameters, for a user and token.
func (a *API) Login(ctx context.Context, email, password string) (*User, string, error) {
	query := url.Values{}
	query.Set("email", email)
	query.Set("password", password)

	raw, err := a.do(ctx, request{method: http.MethodPost, path: "/users/login", query: query})
	if err != nil {
		return nil, "", err
	}

	resp, err := decodeObject[loginResponse](raw)
	if err != nil {
		return nil, "", err
	}

	user := resp.User
	if resp.Nested != nil && resp.Nested.ID != "" {
		user = *resp.Nested
	}
	token := resp.AccessToken
	if token == "" {
		token = resp.Token
	}
	switch {
	case user.ID == "":
		return nil, "", fmt.Errorf("%w: login response missing user id", ErrMalformedResponse)
	case token == "":
		return nil, "", fmt.Errorf("%w: login response missing token", ErrMalformedResponse)
	}
	a.logger.Printf("login ok for %s, token %s", user.Email, tokenPreview(token))
	return &user, token, nil
}

func (a *API) Register(ctx context.Context, in RegisterRequest) (*User, error) {
	req, err := jsonRequest(http.MethodPost, "/users/", in)
	if err != nil {
		return nil, err
	}
	raw, err := a.do(ctx, req)
	if err != nil {
		return nil, err
	}
	return decodeObject[User](raw)
}

// Me fetches the user the given token belongs to. An empty token uses the API's token.
func (a *API) Me(ctx context.Context, token string) (*User, error) {
	if token == "" && a.Token() == "" {
		return nil, ErrNotAuthenticated
	}
	raw, err := a.do(ctx, request{method: http.MethodGet, path: "/users/me", token: token})
	if err != nil {
		return nil, err
	}
	user, err := decodeObject[User](raw)
	if err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, fmt.Errorf("%w: user without id", ErrMalformedResponse)
	}
	return user, nil
}

func (a *API) Patients(ctx context.Context) ([]Patient, error) {
	raw, err := a.do(ctx, request{method: http.MethodGet, path: "/users/patients"})
	if err != nil {
		return nil, err
	}
	return decodeList[Patient](raw, a.lenient)
}

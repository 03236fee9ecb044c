// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package serviceaccount provides functions for working with Google service accounts.
//
// See https://developers.google.com/identity/protocols/oauth2/service-account.
package serviceaccount

import (
	"cmp"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.astrophena.name/kazuto/internal/request"
	"go.astrophena.name/kazuto/internal/version"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// Scopes needed to read and append chat history.
const (
	ScopeSpreadsheets  = "https://www.googleapis.com/auth/spreadsheets"
	ScopeDriveReadonly = "https://www.googleapis.com/auth/drive.readonly"
)

const defaultTokenURI = "https://oauth2.googleapis.com/token"

// tokenLifetime is how long a minted token lives on Google's side.
const tokenLifetime = time.Hour

// LoadKey loads service account key from JSON byte slice.
func LoadKey(b []byte) (*Key, error) {
	var key Key
	if err := json.Unmarshal(b, &key); err != nil {
		return nil, err
	}
	if key.ClientEmail == "" || key.PrivateKey == "" {
		return nil, errors.New("serviceaccount: key lacks client_email or private_key")
	}
	if key.TokenURI == "" {
		key.TokenURI = defaultTokenURI
	}
	return &key, nil
}

// LoadBase64Key decodes standard base64 and loads the resulting JSON key.
func LoadBase64Key(s string) (*Key, error) {
	b, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("serviceaccount: decoding base64: %w", err)
	}
	return LoadKey(b)
}

// Key represents a service account key.
type Key struct {
	Type         string `json:"type"`
	ProjectID    string `json:"project_id"`
	PrivateKeyID string `json:"private_key_id"`
	PrivateKey   string `json:"private_key"`
	ClientEmail  string `json:"client_email"`
	ClientID     string `json:"client_id"`
	AuthURI      string `json:"auth_uri"`
	TokenURI     string `json:"token_uri"`
}

// AccessToken obtains an access token for service account identified by this
// key that is valid for one hour.
func (k *Key) AccessToken(ctx context.Context, client *http.Client, scopes ...string) (string, error) {
	tok, err := k.token(ctx, client, scopes)
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

func (k *Key) token(ctx context.Context, client *http.Client, scopes []string) (*oauth2.Token, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(k.PrivateKey))
	if err != nil {
		return nil, err
	}

	now := time.Now()
	sig, err := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"iss":   k.ClientEmail,
		"sub":   k.ClientEmail,
		"aud":   k.TokenURI,
		"scope": strings.Join(scopes, " "),
		"iat":   now.Unix(),
		"exp":   now.Add(tokenLifetime).Unix(),
	}).SignedString(key)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Add("grant_type", "urn:ietf:params:oauth:grant-type:jwt-bearer")
	params.Add("assertion", sig)

	type response struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int    `json:"expires_in"`
	}

	resp, err := request.Make[response](ctx, request.Params{
		Method: http.MethodPost,
		URL:    k.TokenURI,
		Body:   params,
		Headers: map[string]string{
			"User-Agent": version.UserAgent(),
		},
		HTTPClient: client,
		Scrubber:   strings.NewReplacer(sig, "[EXPUNGED]"),
	})
	if err != nil {
		return nil, err
	}

	lifetime := tokenLifetime
	if resp.ExpiresIn > 0 {
		lifetime = time.Duration(resp.ExpiresIn) * time.Second
	}
	// Refresh a minute early.
	return &oauth2.Token{
		AccessToken: resp.AccessToken,
		TokenType:   cmp.Or(resp.TokenType, "Bearer"),
		Expiry:      now.Add(lifetime - time.Minute),
	}, nil
}

// TokenSource returns an [oauth2.TokenSource] that mints tokens for this key
// and reuses them until they expire.
func (k *Key) TokenSource(ctx context.Context, client *http.Client, scopes ...string) oauth2.TokenSource {
	return oauth2.ReuseTokenSource(nil, &tokenSource{ctx: ctx, key: k, client: client, scopes: scopes})
}

type tokenSource struct {
	ctx    context.Context
	key    *Key
	client *http.Client
	scopes []string
}

func (ts *tokenSource) Token() (*oauth2.Token, error) {
	return ts.key.token(ts.ctx, ts.client, ts.scopes)
}

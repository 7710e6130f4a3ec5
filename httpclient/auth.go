package httpclient

import "net/http"

// AuthType identifies the authentication method.
type AuthType int

const (
	// AuthNone disables authentication.
	AuthNone AuthType = iota
	// AuthBearer uses Bearer token authentication.
	AuthBearer
)

// AuthConfig configures request authentication.
type AuthConfig struct {
	// Type is the authentication method.
	Type AuthType
	// Token is the bearer token (AuthBearer).
	Token string
}

// BearerAuth creates a bearer token auth config. An empty token yields no
// auth so anonymous ImgLa instances keep working.
func BearerAuth(token string) *AuthConfig {
	if token == "" {
		return &AuthConfig{Type: AuthNone}
	}
	return &AuthConfig{Type: AuthBearer, Token: token}
}

// NoAuth disables any client-level auth for a single request. Presigned URLs
// carry their own credentials and must not receive an Authorization header.
func NoAuth() *AuthConfig {
	return &AuthConfig{Type: AuthNone}
}

// apply applies authentication to an HTTP request.
func (a *AuthConfig) apply(req *http.Request) {
	if a == nil {
		return
	}
	if a.Type == AuthBearer {
		req.Header.Set("Authorization", "Bearer "+a.Token)
	}
}

package httpclient

import "net/http"

// Auth decorates an outgoing request with credentials.
type Auth interface {
	Apply(req *http.Request)
}

type NoAuth struct{}

func (NoAuth) Apply(*http.Request) {}

// BearerToken sends "Authorization: Bearer <token>".
type BearerToken struct {
	Token string
}

func (a BearerToken) Apply(req *http.Request) {
	if a.Token == "" {
		return
	}
	req.Header.Set("Authorization", "Bearer "+a.Token)
}

// APIKey sends the key in a header (default X-API-Key).
type APIKey struct {
	Key    string
	Header string
}

func (a APIKey) Apply(req *http.Request) {
	if a.Key == "" {
		return
	}
	header := a.Header
	if header == "" {
		header = "X-API-Key"
	}
	req.Header.Set(header, a.Key)
}

/*
Copyright © 2025 ChorusHub.

Released under MIT license.
*/

package clientpool

import (
	"fmt"
	"net/http"
	"time"
)

// DefaultClientTimeout is a default timeout for requests made by pooled clients.
const DefaultClientTimeout = time.Second * 30

// Client is a logical handle for talking to the storage backend on behalf of one authenticated user.
// The zero value is not usable, construct it with NewClient.
type Client struct {
	// Subject is the subject identifier from the token claims.
	Subject string

	// HTTP is an HTTP client that sets the Authorization header on all outgoing requests.
	HTTP *http.Client

	token string
}

// ClientOpts contains optional parameters for NewClient.
type ClientOpts struct {
	// Timeout is a timeout for requests made by the client. DefaultClientTimeout is used if zero.
	Timeout time.Duration

	// Transport is an underlying transport. http.DefaultTransport is used if nil.
	Transport http.RoundTripper
}

// NewClient constructs a new client handle for the given bearer token.
func NewClient(token string, claims TokenClaims) *Client {
	return NewClientWithOpts(token, claims, ClientOpts{})
}

// NewClientWithOpts constructs a new client handle for the given bearer token
// with an ability to specify different optional parameters.
func NewClientWithOpts(token string, claims TokenClaims, opts ClientOpts) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = DefaultClientTimeout
	}
	delegate := opts.Transport
	if delegate == nil {
		delegate = http.DefaultTransport
	}
	return &Client{
		Subject: claims.Subject,
		token:   token,
		HTTP: &http.Client{
			Timeout:   opts.Timeout,
			Transport: &authBearerRoundTripper{delegate: delegate, token: token},
		},
	}
}

// Token returns the raw bearer token the client was built from.
func (c *Client) Token() string {
	return c.token
}

// authBearerRoundTripper implements http.RoundTripper interface
// and sets Authorization HTTP header in all outgoing requests.
type authBearerRoundTripper struct {
	delegate http.RoundTripper
	token    string
}

// RoundTrip executes a single HTTP transaction, returning a Response for the provided Request.
func (rt *authBearerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Body != nil {
		defer func() {
			_ = req.Body.Close() // Per RoundTripper contract.
		}()
	}
	if req.Header.Get("Authorization") != "" {
		return rt.delegate.RoundTrip(req)
	}
	req = req.Clone(req.Context()) // Per RoundTripper contract.
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", rt.token))
	return rt.delegate.RoundTrip(req)
}

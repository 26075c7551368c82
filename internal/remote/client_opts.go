package remote

import "net/http"

type HTTPClientOpt func(*HTTPClient)

func WithHTTPClient(hc *http.Client) HTTPClientOpt {
	return func(c *HTTPClient) {
		c.client = hc
	}
}

// WithHeader adds a header sent on every call, typically the player's
// credential.
func WithHeader(key, value string) HTTPClientOpt {
	return func(c *HTTPClient) {
		c.headers.Add(key, value)
	}
}

// WithBearerToken is WithHeader for an Authorization bearer credential.
func WithBearerToken(token string) HTTPClientOpt {
	return WithHeader("Authorization", "Bearer "+token)
}

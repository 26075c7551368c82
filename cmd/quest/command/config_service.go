package command

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-quest/internal/remote"
	"github.com/pixil98/go-quest/internal/session"
)

const defaultServiceTimeout = 10 * time.Second

// ServiceConfig points sessions at the game service. When the sandbox is
// enabled and no URL is set, sessions talk to the sandbox.
type ServiceConfig struct {
	URL     string `json:"url"`
	Timeout string `json:"timeout"`
}

func (c *ServiceConfig) validate(sandboxEnabled bool) error {
	el := errors.NewErrorList()

	switch {
	case c.URL == "" && !sandboxEnabled:
		el.Add(fmt.Errorf("service: url is required unless the sandbox is enabled"))
	case c.URL != "":
		u, err := url.Parse(c.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			el.Add(fmt.Errorf("service: url %q must be absolute", c.URL))
		}
	}

	if c.Timeout != "" {
		_, err := time.ParseDuration(c.Timeout)
		if err != nil {
			el.Add(fmt.Errorf("service: parsing timeout: %w", err))
		}
	}

	return el.Err()
}

// buildServiceFactory returns a factory making one client per player token.
func (c *ServiceConfig) buildServiceFactory(fallbackURL string) (session.ServiceFactory, error) {
	base := c.URL
	if base == "" {
		base = fallbackURL
	}

	timeout := defaultServiceTimeout
	if c.Timeout != "" {
		d, err := time.ParseDuration(c.Timeout)
		if err != nil {
			return nil, fmt.Errorf("parsing timeout: %w", err)
		}
		timeout = d
	}
	hc := &http.Client{Timeout: timeout}

	// Fail at startup rather than on the first login.
	if _, err := remote.NewHTTPClient(base); err != nil {
		return nil, err
	}

	return func(token string) (remote.Service, error) {
		return remote.NewHTTPClient(base,
			remote.WithHTTPClient(hc),
			remote.WithBearerToken(token),
		)
	}, nil
}

package hud

type presenterConfig struct {
	format  string
	pub     Publisher
	subject string
}

type PresenterOpt func(*presenterConfig)

// WithTemplate replaces the status line template.
func WithTemplate(format string) PresenterOpt {
	return func(c *presenterConfig) {
		if format != "" {
			c.format = format
		}
	}
}

// WithPublisher mirrors every frame and notification to subject as JSON.
func WithPublisher(pub Publisher, subject string) PresenterOpt {
	return func(c *presenterConfig) {
		c.pub = pub
		c.subject = subject
	}
}

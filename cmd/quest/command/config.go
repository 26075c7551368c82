package command

import (
	"fmt"
	"time"

	"github.com/pixil98/go-errors"
)

type Config struct {
	TickLength string           `json:"tick_length"`
	Hub        string           `json:"hub"`
	Listeners  []ListenerConfig `json:"listeners"`
	Storage    StorageConfig    `json:"storage"`
	Nats       NatsConfig       `json:"nats"`
	Service    ServiceConfig    `json:"service"`
	Sandbox    SandboxConfig    `json:"sandbox"`
	HUD        HUDConfig        `json:"hud"`
}

func (c *Config) Validate() error {
	el := errors.NewErrorList()

	if c.TickLength != "" {
		d, err := time.ParseDuration(c.TickLength)
		if err != nil {
			el.Add(fmt.Errorf("parsing tick_length: %w", err))
		} else if d < 50*time.Millisecond {
			el.Add(fmt.Errorf("tick_length must be at least 50ms"))
		}
	}

	if c.Hub == "" {
		el.Add(fmt.Errorf("hub is required"))
	}

	if len(c.Listeners) == 0 {
		el.Add(fmt.Errorf("at least one listener is required"))
	}
	for i, l := range c.Listeners {
		err := l.validate()
		if err != nil {
			el.Add(fmt.Errorf("listener %d: %w", i, err))
		}
	}

	el.Add(c.Storage.validate(c.Sandbox.Enabled))
	el.Add(c.Nats.validate())
	el.Add(c.Service.validate(c.Sandbox.Enabled))
	el.Add(c.Sandbox.validate())

	return el.Err()
}

func (c *Config) tickLength() time.Duration {
	d, err := time.ParseDuration(c.TickLength)
	if err != nil || c.TickLength == "" {
		return 0
	}
	return d
}

type HUDConfig struct {
	Template string `json:"template"`
}

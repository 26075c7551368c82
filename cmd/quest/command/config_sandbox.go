package command

import (
	"fmt"
	"net"
	"os"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-quest/internal/game"
	"github.com/pixil98/go-quest/internal/sandbox"
	"github.com/pixil98/go-quest/internal/storage"
)

const defaultSandboxAddr = "127.0.0.1:8080"

// SandboxConfig runs the built-in game service next to the listeners.
type SandboxConfig struct {
	Enabled  bool   `json:"enabled"`
	Addr     string `json:"addr"`
	QuizPath string `json:"quiz_path"`
}

func (c *SandboxConfig) validate() error {
	if !c.Enabled {
		return nil
	}

	el := errors.NewErrorList()

	if c.Addr != "" {
		if _, _, err := net.SplitHostPort(c.Addr); err != nil {
			el.Add(fmt.Errorf("sandbox: invalid addr %q: %w", c.Addr, err))
		}
	}
	if c.QuizPath == "" {
		el.Add(fmt.Errorf("sandbox: quiz_path is required"))
	} else if _, err := os.Stat(c.QuizPath); err != nil {
		el.Add(fmt.Errorf("sandbox: invalid quiz_path %q: %w", c.QuizPath, err))
	}

	return el.Err()
}

func (c *SandboxConfig) addr() string {
	if c.Addr == "" {
		return defaultSandboxAddr
	}
	return c.Addr
}

// url is where sessions reach the sandbox.
func (c *SandboxConfig) url() string {
	return "http://" + c.addr()
}

func (c *SandboxConfig) buildServer(atlas *game.Atlas, characters *AssetConfig[*sandbox.Record], announcer sandbox.Announcer) (*sandbox.Server, error) {
	records, err := characters.buildFileStore(storage.WithCreate())
	if err != nil {
		return nil, fmt.Errorf("creating character store: %w", err)
	}

	opts := []sandbox.ServerOpt{sandbox.WithAddr(c.addr())}
	if announcer != nil {
		opts = append(opts, sandbox.WithAnnouncer(announcer))
	}

	return sandbox.NewServer(atlas, records, c.QuizPath, opts...)
}

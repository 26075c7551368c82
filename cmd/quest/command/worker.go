package command

import (
	"fmt"

	"github.com/pixil98/go-quest/internal/listener"
	"github.com/pixil98/go-quest/internal/messaging"
	"github.com/pixil98/go-quest/internal/sandbox"
	"github.com/pixil98/go-quest/internal/session"
	"github.com/pixil98/go-service"
)

func BuildWorkers(config interface{}) (service.WorkerList, error) {
	cfg, ok := config.(*Config)
	if !ok {
		return nil, fmt.Errorf("unable to cast config")
	}

	workers := service.WorkerList{}

	atlas, err := cfg.Storage.buildAtlas(cfg.Hub)
	if err != nil {
		return nil, err
	}

	var managerOpts []session.ManagerOpt
	if d := cfg.tickLength(); d > 0 {
		managerOpts = append(managerOpts, session.WithTickLength(d))
	}
	if cfg.HUD.Template != "" {
		managerOpts = append(managerOpts, session.WithHUDTemplate(cfg.HUD.Template))
	}

	// Level-up announcements and HUD mirroring ride on NATS.
	var announcer sandbox.Announcer
	if cfg.Nats.Enabled {
		ns, err := cfg.Nats.buildNatsServer()
		if err != nil {
			return nil, fmt.Errorf("creating nats server: %w", err)
		}
		workers["nats"] = ns
		managerOpts = append(managerOpts, session.WithBus(ns))
		announcer = messaging.NewAnnouncer(ns)
	}

	var fallbackURL string
	if cfg.Sandbox.Enabled {
		sb, err := cfg.Sandbox.buildServer(atlas, &cfg.Storage.Characters, announcer)
		if err != nil {
			return nil, fmt.Errorf("creating sandbox service: %w", err)
		}
		workers["sandbox"] = sb
		fallbackURL = cfg.Sandbox.url()
	}

	newService, err := cfg.Service.buildServiceFactory(fallbackURL)
	if err != nil {
		return nil, fmt.Errorf("creating service client: %w", err)
	}

	sessions := session.NewManager(atlas, newService, managerOpts...)
	cm := listener.NewConnectionManager(sessions)

	listeners := make(service.WorkerList, len(cfg.Listeners))
	for i, l := range cfg.Listeners {
		w, err := l.buildListener(cm)
		if err != nil {
			return nil, fmt.Errorf("creating listener %d: %w", i, err)
		}
		listeners[fmt.Sprintf("listener-%d", i)] = w
	}
	workers["listeners"] = &listeners

	return workers, nil
}

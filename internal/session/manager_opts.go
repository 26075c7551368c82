package session

import "time"

type ManagerOpt func(*Manager)

// WithBus mirrors HUD frames to the bus and shows its announcements.
func WithBus(bus Bus) ManagerOpt {
	return func(m *Manager) {
		m.bus = bus
	}
}

func WithTickLength(d time.Duration) ManagerOpt {
	return func(m *Manager) {
		m.tickLength = d
	}
}

// WithHUDTemplate replaces the status line template.
func WithHUDTemplate(format string) ManagerOpt {
	return func(m *Manager) {
		m.hudTemplate = format
	}
}

package scene

import "time"

type MachineOpt func(*Machine)

func WithTickLength(tickLength time.Duration) MachineOpt {
	return func(m *Machine) {
		m.tickLength = tickLength
	}
}

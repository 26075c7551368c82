package scene

import (
	"context"
	"fmt"
	"strings"
)

type commandFunc func(ctx context.Context, args []string) (*State, error)

type command struct {
	name    string
	aliases []string
	usage   string
	help    string
	fn      commandFunc
}

// commandSet dispatches player input for one scene.
type commandSet struct {
	cmds  []command
	index map[string]int
}

func newCommandSet(cmds ...command) *commandSet {
	cs := &commandSet{
		cmds:  cmds,
		index: make(map[string]int, len(cmds)),
	}
	for i, c := range cmds {
		cs.index[c.name] = i
		for _, a := range c.aliases {
			cs.index[a] = i
		}
	}
	return cs
}

func (cs *commandSet) exec(ctx context.Context, line string) (*State, error) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil, nil
	}

	i, ok := cs.index[strings.ToLower(parts[0])]
	if !ok {
		return nil, NewUserError(fmt.Sprintf("Unknown command %q. Type 'help' for a list.", parts[0]))
	}
	return cs.cmds[i].fn(ctx, parts[1:])
}

func (cs *commandSet) help() string {
	var sb strings.Builder
	sb.WriteString("Commands:\n")

	width := 0
	for _, c := range cs.cmds {
		width = max(width, len(c.usage))
	}
	for _, c := range cs.cmds {
		if c.usage == "" {
			continue
		}
		fmt.Fprintf(&sb, "  %-*s  %s\n", width, c.usage, c.help)
	}
	fmt.Fprintf(&sb, "  %-*s  %s\n", width, "quit", "Leave the game")
	return sb.String()
}

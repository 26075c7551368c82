package scene

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/pixil98/go-quest/internal/display"
	"github.com/pixil98/go-quest/internal/storage"
)

// describeArea writes the area name, its danger and its exits.
func describeArea(env Env, id storage.Identifier) string {
	area := env.Atlas.Area(id)
	if area == nil {
		return fmt.Sprintf("You are somewhere unknown (%s).\n", id)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n", display.Title(area.Name))
	if area.Safe {
		sb.WriteString("It is safe here. No monsters roam these streets.\n")
	} else {
		fmt.Fprintf(&sb, "Danger level %d. Monsters lurk nearby.\n", area.Difficulty)
	}

	names := make([]string, 0, len(area.Exits))
	for _, e := range area.Exits {
		names = append(names, env.Atlas.DisplayName(e.Id()))
	}
	if len(names) > 0 {
		sb.WriteString(display.Wrap("Paths lead to: " + strings.Join(names, ", ") + "."))
		sb.WriteString("\n")
	}
	return sb.String()
}

func say(env Env, s string) {
	if _, err := io.WriteString(env.Out, s); err != nil {
		slog.Debug("writing to player", "error", err)
	}
}

// travel resolves a "go" target against the exits of from.
func travel(env Env, from storage.Identifier, args []string) (*State, error) {
	if len(args) == 0 {
		return nil, NewUserError("Go where?")
	}

	dest, ok := env.Atlas.FindExit(from, strings.Join(args, " "))
	if !ok {
		return nil, NewUserError(fmt.Sprintf("There is no path to %q from here.", strings.Join(args, " ")))
	}

	var next State
	if env.Atlas.IsHub(dest) {
		next = Hub(dest)
	} else {
		next = Exploration(dest)
	}
	return &next, nil
}

// refresh re-fetches the character and reports a failure to the player.
// A non-nil after runs once the reload succeeded, before the summary.
func refresh(ctx context.Context, env Env, after func()) error {
	if err := env.Store.Refresh(ctx, env.Service); err != nil {
		slog.WarnContext(ctx, "refreshing character", "error", err)
		return NewUserError("Your character could not be loaded right now.")
	}
	if after != nil {
		after()
	}
	c := env.Store.Snapshot()
	say(env, fmt.Sprintf("Level %d, %d/%d HP, %d XP (%d to next level).\n", c.Level, c.HP, c.MaxHP, c.XP, c.XPToNext))
	return nil
}

package hud

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/pixil98/go-quest/internal/game"
	"github.com/pixil98/go-quest/internal/storage"
	"github.com/pixil98/go-testutil"
)

type namer map[storage.Identifier]string

func (n namer) DisplayName(id storage.Identifier) string { return n[id] }

type capturePublisher struct {
	subjects []string
	msgs     [][]byte
}

func (c *capturePublisher) Publish(subject string, data []byte) error {
	c.subjects = append(c.subjects, subject)
	c.msgs = append(c.msgs, data)
	return nil
}

func TestPercent(t *testing.T) {
	tests := map[string]struct {
		hp    int
		maxHP int
		exp   int
	}{
		"full":          {hp: 100, maxHP: 100, exp: 100},
		"partial":       {hp: 33, maxHP: 110, exp: 30},
		"zero":          {hp: 0, maxHP: 100, exp: 0},
		"negative hp":   {hp: -15, maxHP: 100, exp: 0},
		"hp over max":   {hp: 250, maxHP: 100, exp: 100},
		"zero max":      {hp: 10, maxHP: 0, exp: 0},
		"negative max":  {hp: 10, maxHP: -5, exp: 0},
		"both negative": {hp: -10, maxHP: -5, exp: 0},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			testutil.AssertEqual(t, "percent", Percent(tt.hp, tt.maxHP), tt.exp)
		})
	}
}

func TestPresenter_Project(t *testing.T) {
	var out bytes.Buffer
	pub := &capturePublisher{}

	p, err := NewPresenter(&out, namer{"forest": "Forest"}, WithPublisher(pub, "quest.hud.s1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p.Project(game.Character{HP: 50, MaxHP: 100, XP: 120, XPToNext: 130, Level: 2, Area: "forest"})

	testutil.AssertEqual(t, "output", out.String(), "[50/100 HP [#####-----]] Lv 2  XP 120 (130 to next)  Forest\n")
	testutil.AssertEqual(t, "last", p.Last(), Frame{HP: 50, MaxHP: 100, Percent: 50, XP: 120, XPToNext: 130, Level: 2, Area: "Forest"})

	testutil.AssertEqual(t, "published", len(pub.msgs), 1)
	testutil.AssertEqual(t, "subject", pub.subjects[0], "quest.hud.s1")

	var e event
	if err := json.Unmarshal(pub.msgs[0], &e); err != nil {
		t.Fatalf("decoding event: %v", err)
	}
	testutil.AssertEqual(t, "type", e.Type, "hud")
	testutil.AssertEqual(t, "frame", *e.Frame, p.Last())
}

func TestPresenter_NoAreaFallsBack(t *testing.T) {
	var out bytes.Buffer
	p, err := NewPresenter(&out, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p.Project(game.Character{HP: 1, MaxHP: 0})

	testutil.AssertEqual(t, "fallback", strings.HasSuffix(out.String(), "Unknown\n"), true)
	testutil.AssertEqual(t, "percent", p.Last().Percent, 0)
}

func TestPresenter_Notify(t *testing.T) {
	var out bytes.Buffer
	pub := &capturePublisher{}
	p, err := NewPresenter(&out, nil, WithPublisher(pub, "quest.hud.s1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p.Notify("Level up! You are now level 3.")

	testutil.AssertEqual(t, "output", out.String(), "* Level up! You are now level 3.\n")
	testutil.AssertEqual(t, "event", string(pub.msgs[0]), `{"type":"notice","message":"Level up! You are now level 3."}`)
}

func TestNewPresenter_BadTemplate(t *testing.T) {
	_, err := NewPresenter(&bytes.Buffer{}, nil, WithTemplate("{{ .HP "))
	testutil.AssertErrorContains(t, err, "parsing hud template")
}

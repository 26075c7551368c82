package scene

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/pixil98/go-quest/internal/combat"
	"github.com/pixil98/go-quest/internal/explore"
	"github.com/pixil98/go-quest/internal/game"
	"github.com/pixil98/go-quest/internal/panel"
	"github.com/pixil98/go-quest/internal/storage"
	"github.com/pixil98/go-quest/internal/telemetry"
	"github.com/pixil98/go-testutil"
)

type fakeService struct {
	mu sync.Mutex

	state    game.Character
	stateErr error
	moveEnc  game.Encounter
	moves    int
	rests    int
	returns  int
}

func (f *fakeService) GetState(ctx context.Context) (game.Character, error) {
	return f.state, f.stateErr
}

func (f *fakeService) Move(ctx context.Context, area storage.Identifier, pos game.Position) (game.Encounter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.moves++
	return f.moveEnc, nil
}

func (f *fakeService) moveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.moves
}

func (f *fakeService) FetchQuestion(ctx context.Context) (game.Question, error) {
	return game.Question{}, errors.New("not used")
}

func (f *fakeService) SubmitAnswer(ctx context.Context, id int, indices []int, source string) (game.Grade, error) {
	return game.Grade{}, errors.New("not used")
}

func (f *fakeService) Rest(ctx context.Context) (game.Vitals, error) {
	f.rests++
	return game.Vitals{HP: 110, MaxHP: 110}, nil
}

func (f *fakeService) ReturnToHub(ctx context.Context) (storage.Identifier, error) {
	f.returns++
	f.state.Area = "village"
	f.state.HP = f.state.MaxHP
	return "village", nil
}

func (f *fakeService) SyncQuestions(ctx context.Context) (int, error) {
	return 12, nil
}

type fakeFighter struct {
	outcome combat.Phase
	fought  []game.Encounter
	store   *game.CharacterStore
	at      []game.Position
	err     error
}

// Run fakes a fight by resolving grades until the wanted phase is reached.
func (f *fakeFighter) Run(ctx context.Context, enc game.Encounter) (*combat.Session, error) {
	f.fought = append(f.fought, enc)
	if f.store != nil {
		f.at = append(f.at, f.store.Snapshot().Position)
	}
	s := combat.NewSession(enc)
	if f.outcome == combat.Aborted {
		s.Abort()
		return s, nil
	}
	for id := 1; !s.Phase().Done(); id++ {
		_ = s.Present(game.Question{ID: id})
		_ = s.Submit()
		_, _ = s.Resolve(game.Grade{Correct: f.outcome == combat.Victory, Defeated: f.outcome == combat.Defeat})
	}
	return s, f.err
}

type notes struct {
	msgs []string
}

func (n *notes) Notify(msg string) {
	n.msgs = append(n.msgs, msg)
}

func (n *notes) last() string {
	if len(n.msgs) == 0 {
		return ""
	}
	return n.msgs[len(n.msgs)-1]
}

type memAreas map[storage.Identifier]*game.Area

func (m memAreas) Save(id storage.Identifier, a *game.Area) error { m[id] = a; return nil }
func (m memAreas) Get(id storage.Identifier) *game.Area           { return m[id] }
func (m memAreas) GetAll() map[storage.Identifier]*game.Area {
	out := make(map[storage.Identifier]*game.Area, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func exits(ids ...storage.Identifier) []storage.SmartIdentifier[*game.Area] {
	out := make([]storage.SmartIdentifier[*game.Area], 0, len(ids))
	for _, id := range ids {
		out = append(out, storage.NewSmartIdentifier[*game.Area](id))
	}
	return out
}

func testAtlas(t *testing.T) *game.Atlas {
	t.Helper()
	atlas, err := game.NewAtlas(memAreas{
		"village": {Name: "Village", Safe: true, Exits: exits("meadow", "forest")},
		"meadow":  {Name: "Meadow", Difficulty: 1, Exits: exits("village"), Width: 20, Height: 20},
		"forest":  {Name: "Forest", Difficulty: 2, Exits: exits("village", "cave"), Width: 20, Height: 20},
		"cave":    {Name: "Cave", Difficulty: 3, Exits: exits("forest"), Width: 20, Height: 20},
	}, "village")
	if err != nil {
		t.Fatalf("building atlas: %v", err)
	}
	return atlas
}

type fixture struct {
	svc     *fakeService
	fighter *fakeFighter
	notes   *notes
	out     *bytes.Buffer
	store   *game.CharacterStore
	machine *Machine
}

func newFixture(t *testing.T, start storage.Identifier) *fixture {
	t.Helper()

	f := &fixture{
		svc:     &fakeService{state: game.Character{HP: 100, MaxHP: 100, Level: 1, XPToNext: 100, Area: start}},
		fighter: &fakeFighter{outcome: combat.Victory},
		notes:   &notes{},
		out:     &bytes.Buffer{},
	}
	f.store = game.NewCharacterStore(nil,
		game.WithRefreshTries(1),
		game.WithRefreshBackOff(func() backoff.BackOff { return &backoff.ZeroBackOff{} }),
	)
	f.fighter.store = f.store
	f.machine = NewMachine(Env{
		Service:     f.svc,
		Store:       f.store,
		Atlas:       testAtlas(t),
		Notify:      f.notes,
		Fighter:     f.fighter,
		Out:         f.out,
		TrackerOpts: []explore.TrackerOpt{explore.WithTracer(telemetry.NoopTracer())},
	}, WithTickLength(time.Millisecond))
	t.Cleanup(func() { f.machine.exit(context.Background()) })
	return f
}

func (f *fixture) input(t *testing.T, line string) {
	t.Helper()
	ctx := context.Background()
	next, err := f.machine.handler.OnInput(ctx, line)
	if err := f.machine.handle(ctx, next, err); err != nil {
		t.Fatalf("input %q: %v", line, err)
	}
}

// tickUntil ticks the active scene until done reports true.
func (f *fixture) tickUntil(t *testing.T, done func() bool) {
	t.Helper()
	ctx := context.Background()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		next, err := f.machine.handler.OnTick(ctx)
		if err := f.machine.handle(ctx, next, err); err != nil {
			t.Fatalf("tick: %v", err)
		}
		if done() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("condition never met, in %s", f.machine.State())
}

func TestMachine_Bootstrap(t *testing.T) {
	tests := map[string]struct {
		area     storage.Identifier
		stateErr error
		exp      State
		expErr   string
	}{
		"hub":          {area: "village", exp: Hub("village")},
		"exploration":  {area: "forest", exp: Exploration("forest")},
		"unknown area": {area: "castle", exp: Hub("village")},
		"load failure": {stateErr: errors.New("unreachable"), expErr: "loading character"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, tt.area)
			f.svc.stateErr = tt.stateErr

			err := f.machine.transition(context.Background(), Bootstrap())
			if tt.expErr != "" {
				testutil.AssertErrorContains(t, err, tt.expErr)
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			testutil.AssertEqual(t, "state", f.machine.State(), tt.exp)
			testutil.AssertEqual(t, "first scene", f.machine.History()[0].Kind, KindBootstrap)
		})
	}
}

func TestMachine_Travel(t *testing.T) {
	tests := map[string]struct {
		start      storage.Identifier
		input      string
		exp        State
		expError   string
		expReturns int
	}{
		"hub to area":                   {start: "village", input: "go meadow", exp: Exploration("meadow")},
		"hub to non exit":               {start: "village", input: "go cave", exp: Hub("village"), expError: `There is no path to "cave"`},
		"area to area":                  {start: "forest", input: "go cave", exp: Exploration("cave")},
		"area back to hub":              {start: "meadow", input: "go Village", exp: Hub("village"), expReturns: 1},
		"hub unreachable from the cave": {start: "cave", input: "go village", exp: Exploration("cave"), expError: "There is no path"},
		"missing target":                {start: "forest", input: "go", exp: Exploration("forest"), expError: "Go where?"},
		"unknown command":               {start: "forest", input: "dance", exp: Exploration("forest"), expError: `Unknown command "dance"`},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, tt.start)
			if err := f.machine.transition(context.Background(), Bootstrap()); err != nil {
				t.Fatalf("bootstrap: %v", err)
			}

			f.input(t, tt.input)

			testutil.AssertEqual(t, "state", f.machine.State(), tt.exp)
			testutil.AssertEqual(t, "reported return", f.svc.returns, tt.expReturns)
			if tt.expError != "" {
				testutil.AssertEqual(t, "notified", strings.Contains(f.notes.last(), tt.expError), true)
			}
		})
	}
}

func TestMachine_CombatOutcome(t *testing.T) {
	tests := map[string]struct {
		outcome combat.Phase
		exp     State
	}{
		"victory returns to the area": {outcome: combat.Victory, exp: Exploration("forest")},
		"escape returns to the area":  {outcome: combat.Aborted, exp: Exploration("forest")},
		"defeat goes to the hub":      {outcome: combat.Defeat, exp: Hub("village")},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, "forest")
			f.fighter.outcome = tt.outcome
			f.svc.moveEnc = game.Encounter{Occurred: true, Monster: "Waldgeist", Difficulty: 2}

			if err := f.machine.transition(context.Background(), Bootstrap()); err != nil {
				t.Fatalf("bootstrap: %v", err)
			}
			f.input(t, "e")
			f.tickUntil(t, func() bool { return len(f.fighter.fought) > 0 })

			testutil.AssertEqual(t, "state", f.machine.State(), tt.exp)
			testutil.AssertEqual(t, "fights", len(f.fighter.fought), 1)
			testutil.AssertEqual(t, "fought in", f.fighter.fought[0].Area.String(), "forest")

			var sawCombat bool
			for _, s := range f.machine.History() {
				if s.Kind == KindCombat {
					sawCombat = true
					testutil.AssertEqual(t, "monster", s.Encounter.Monster, "Waldgeist")
				}
			}
			testutil.AssertEqual(t, "entered combat", sawCombat, true)
		})
	}
}

func TestMachine_HubNeverChecksForMonsters(t *testing.T) {
	f := newFixture(t, "village")
	f.svc.moveEnc = game.Encounter{Occurred: true, Monster: "Schleim"}
	if err := f.machine.transition(context.Background(), Bootstrap()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	ctx := context.Background()
	for range 20 {
		next, err := f.machine.handler.OnTick(ctx)
		if err := f.machine.handle(ctx, next, err); err != nil {
			t.Fatalf("tick: %v", err)
		}
	}

	testutil.AssertEqual(t, "moves", f.svc.moveCount(), 0)
	testutil.AssertEqual(t, "state", f.machine.State(), Hub("village"))
}

func TestMachine_HubCommands(t *testing.T) {
	f := newFixture(t, "village")
	f.svc.state.HP = 20
	if err := f.machine.transition(context.Background(), Bootstrap()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	f.input(t, "rest")
	testutil.AssertEqual(t, "rests", f.svc.rests, 1)
	testutil.AssertEqual(t, "hp", f.store.Snapshot().HP, 110)
	testutil.AssertEqual(t, "max hp", f.store.Snapshot().MaxHP, 110)

	f.input(t, "sync")
	testutil.AssertEqual(t, "sync notice", f.notes.last(), "12 questions are waiting for you.")

	f.out.Reset()
	f.input(t, "help")
	testutil.AssertEqual(t, "help lists rest", strings.Contains(f.out.String(), "Recover hit points"), true)
}

func TestMachine_Run(t *testing.T) {
	f := newFixture(t, "village")

	lines := make(chan string, 3)
	lines <- "go meadow"
	lines <- "look"
	lines <- "quit"

	err := f.machine.Run(context.Background(), lines, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	hist := f.machine.History()
	testutil.AssertEqual(t, "scenes", len(hist), 3)
	testutil.AssertEqual(t, "last", hist[2], Exploration("meadow"))
	testutil.AssertEqual(t, "farewell", strings.HasSuffix(f.out.String(), "Farewell.\n"), true)
}

func TestMachine_RunQuitAfterDefeat(t *testing.T) {
	f := newFixture(t, "forest")
	f.fighter.outcome = combat.Defeat
	f.fighter.err = panel.ErrQuit
	f.svc.moveEnc = game.Encounter{Occurred: true, Monster: "Waldgeist", Difficulty: 2}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	lines := make(chan string, 1)
	lines <- "e"

	err := f.machine.Run(ctx, lines, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "fights", len(f.fighter.fought), 1)
	testutil.AssertEqual(t, "ended in combat", f.machine.State().Kind, KindCombat)
}

func TestMachine_RunBootstrapFailure(t *testing.T) {
	f := newFixture(t, "village")
	f.svc.stateErr = errors.New("unreachable")

	err := f.machine.Run(context.Background(), make(chan string), nil)
	testutil.AssertErrorContains(t, err, "loading character")
}

func TestMachine_StatusKeepsSceneArea(t *testing.T) {
	f := newFixture(t, "village")
	if err := f.machine.transition(context.Background(), Bootstrap()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	f.input(t, "go meadow")
	f.input(t, "status")

	c := f.store.Snapshot()
	testutil.AssertEqual(t, "state", f.machine.State(), Exploration("meadow"))
	testutil.AssertEqual(t, "cached area", c.Area, storage.Identifier("meadow"))
	testutil.AssertEqual(t, "position", c.Position, game.Position{X: 10, Y: 10})
	testutil.AssertEqual(t, "summary shown", strings.Contains(f.out.String(), "Level 1, 100/100 HP"), true)
}

func TestMachine_EncounterTickDoesNotMove(t *testing.T) {
	f := newFixture(t, "forest")
	f.svc.moveEnc = game.Encounter{Occurred: true, Monster: "Waldgeist", Difficulty: 2}
	if err := f.machine.transition(context.Background(), Bootstrap()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	f.input(t, "walk east")

	ctx := context.Background()
	deadline := time.Now().Add(2 * time.Second)
	var before game.Position
	for len(f.fighter.fought) == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("no fight started, in %s", f.machine.State())
		}
		before = f.machine.handler.(*explorationScene).tracker.Position()
		next, err := f.machine.handler.OnTick(ctx)
		if err := f.machine.handle(ctx, next, err); err != nil {
			t.Fatalf("tick: %v", err)
		}
		time.Sleep(time.Millisecond)
	}

	testutil.AssertEqual(t, "position at fight", f.fighter.at[0], before)
}

func TestMachine_WalkCommand(t *testing.T) {
	tests := map[string]struct {
		input    string
		expError string
	}{
		"named direction":   {input: "walk north"},
		"short direction":   {input: "walk W"},
		"missing direction": {input: "walk", expError: "Walk where?"},
		"unknown direction": {input: "walk up", expError: `"up" is not a direction.`},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, "forest")
			if err := f.machine.transition(context.Background(), Bootstrap()); err != nil {
				t.Fatalf("bootstrap: %v", err)
			}

			f.input(t, tt.input)

			if tt.expError != "" {
				testutil.AssertEqual(t, "notified", f.notes.last(), tt.expError)
				return
			}
			testutil.AssertEqual(t, "walking", strings.Contains(f.out.String(), "You start walking"), true)
		})
	}
}

func TestMachine_HistoryIsBounded(t *testing.T) {
	f := newFixture(t, "forest")
	if err := f.machine.transition(context.Background(), Bootstrap()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	for range historyLimit {
		f.input(t, "go cave")
		f.input(t, "go forest")
	}

	hist := f.machine.History()
	testutil.AssertEqual(t, "length", len(hist), historyLimit)
	testutil.AssertEqual(t, "newest", hist[len(hist)-1], Exploration("forest"))
}

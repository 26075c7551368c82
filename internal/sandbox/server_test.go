package sandbox

import (
	"context"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pixil98/go-quest/internal/game"
	"github.com/pixil98/go-quest/internal/remote"
	"github.com/pixil98/go-quest/internal/storage"
	"github.com/pixil98/go-testutil"
)

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

func testAtlas(t *testing.T) *game.Atlas {
	t.Helper()
	link := func(ids ...storage.Identifier) []storage.SmartIdentifier[*game.Area] {
		var out []storage.SmartIdentifier[*game.Area]
		for _, id := range ids {
			out = append(out, storage.NewSmartIdentifier[*game.Area](id))
		}
		return out
	}
	atlas, err := game.NewAtlas(memAreas{
		"village":  {Name: "Startdorf", Safe: true, Exits: link("meadow", "mountain")},
		"meadow":   {Name: "Meadow", Difficulty: 1, EncounterRate: 1, Exits: link("village")},
		"mountain": {Name: "Mountain", Difficulty: 4, EncounterRate: 0, Exits: link("village")},
	}, "village")
	if err != nil {
		t.Fatalf("building atlas: %v", err)
	}
	return atlas
}

type announcements struct {
	mu   sync.Mutex
	msgs []string
}

func (a *announcements) all() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.msgs)
}

func (a *announcements) Announce(msg string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.msgs = append(a.msgs, msg)
	return nil
}

type fixture struct {
	srv       *Server
	records   *storage.FileStore[*Record]
	announced *announcements
	url       string
	quizDir   string
}

func newFixture(t *testing.T, quizzes map[string]string) *fixture {
	t.Helper()

	records, err := storage.NewFileStore[*Record](t.TempDir(), storage.WithCreate())
	if err != nil {
		t.Fatalf("creating record store: %v", err)
	}

	f := &fixture{records: records, announced: &announcements{}, quizDir: writeQuizzes(t, quizzes)}
	f.srv, err = NewServer(testAtlas(t), records, f.quizDir,
		WithAnnouncer(f.announced),
		WithRand(rand.New(rand.NewPCG(7, 11))),
		WithClock(func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }),
	)
	if err != nil {
		t.Fatalf("creating server: %v", err)
	}

	ts := httptest.NewServer(f.srv.Handler())
	t.Cleanup(ts.Close)
	f.url = ts.URL
	return f
}

// update mutates a stored record under the server lock.
func (f *fixture) update(id storage.Identifier, fn func(*Record)) {
	f.srv.mu.Lock()
	defer f.srv.mu.Unlock()
	fn(f.records.Get(id))
}

func (f *fixture) bankLen() int {
	f.srv.mu.Lock()
	defer f.srv.mu.Unlock()
	return f.srv.bank.Len()
}

func (f *fixture) client(t *testing.T, token string) *remote.HTTPClient {
	t.Helper()
	c, err := remote.NewHTTPClient(f.url, remote.WithBearerToken(token))
	if err != nil {
		t.Fatalf("creating client: %v", err)
	}
	return c
}

func TestServer_Auth(t *testing.T) {
	f := newFixture(t, map[string]string{"a.yaml": fractionsYAML})

	tests := map[string]struct {
		header    string
		expStatus int
	}{
		"missing header":  {header: "", expStatus: http.StatusUnauthorized},
		"wrong scheme":    {header: "Basic abc", expStatus: http.StatusUnauthorized},
		"path characters": {header: "Bearer ../etc", expStatus: http.StatusUnauthorized},
		"valid token":     {header: "Bearer player-1", expStatus: http.StatusOK},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, f.url+remote.PathState, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer resp.Body.Close()

			testutil.AssertEqual(t, "status", resp.StatusCode, tt.expStatus)
			testutil.AssertEqual(t, "request id", resp.Header.Get("X-Request-Id") != "", true)
		})
	}
}

func TestServer_StateCreatesCharacter(t *testing.T) {
	f := newFixture(t, map[string]string{"a.yaml": fractionsYAML})
	c := f.client(t, "player-1")
	ctx := context.Background()

	_, err := c.Rest(ctx)
	testutil.AssertEqual(t, "unknown before state", remote.IsStatus(err, http.StatusNotFound), true)

	ch, err := c.GetState(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "hp", ch.HP, 100)
	testutil.AssertEqual(t, "max hp", ch.MaxHP, 100)
	testutil.AssertEqual(t, "level", ch.Level, 1)
	testutil.AssertEqual(t, "xp to next", ch.XPToNext, 100)
	testutil.AssertEqual(t, "area", string(ch.Area), "village")

	rec := f.records.Get("player-1")
	testutil.AssertEqual(t, "persisted", rec != nil, true)
	testutil.AssertEqual(t, "named", strings.HasPrefix(rec.Name, "adventurer-"), true)
}

func TestServer_Move(t *testing.T) {
	f := newFixture(t, map[string]string{"a.yaml": fractionsYAML})
	c := f.client(t, "player-1")
	ctx := context.Background()
	if _, err := c.GetState(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := map[string]struct {
		area         storage.Identifier
		expEncounter bool
		expStatus    int
	}{
		"hub never meets monsters": {area: "village"},
		"certain encounter":        {area: "meadow", expEncounter: true},
		"zero rate":                {area: "mountain"},
		"unknown area":             {area: "moon", expStatus: http.StatusBadRequest},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			enc, err := c.Move(ctx, tt.area, game.Position{X: 3, Y: 4})
			if tt.expStatus != 0 {
				testutil.AssertEqual(t, "status", remote.IsStatus(err, tt.expStatus), true)
				testutil.AssertErrorContains(t, err, "Invalid area")
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			testutil.AssertEqual(t, "encounter", enc.Occurred, tt.expEncounter)
			if tt.expEncounter {
				testutil.AssertEqual(t, "monster", slices.Contains(monsters[0], enc.Monster), true)
				testutil.AssertEqual(t, "difficulty", enc.Difficulty, 1)
			}

			rec := f.records.Get("player-1")
			testutil.AssertEqual(t, "area", rec.Area, tt.area)
			testutil.AssertEqual(t, "x", rec.X, 3)
		})
	}
}

func TestServer_Combat(t *testing.T) {
	f := newFixture(t, map[string]string{"a.yaml": fractionsYAML})
	c := f.client(t, "player-1")
	ctx := context.Background()
	if _, err := c.GetState(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := c.Move(ctx, "meadow", game.Position{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	q, err := c.FetchQuestion(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "difficulty", q.Difficulty, 1)
	pool := f.srv.bank.Question(q.ID)
	testutil.AssertEqual(t, "multiple", q.Multiple, pool.Multiple())

	g, err := c.SubmitAnswer(ctx, q.ID, pool.Correct, q.Source)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "correct", g.Correct, true)
	testutil.AssertEqual(t, "xp", g.XPGained, XPReward(q.Source, 1))
	testutil.AssertEqual(t, "progress reported", g.TaskProgress != nil, true)
	testutil.AssertEqual(t, "answered", g.TaskProgress.Answered, 1)
	testutil.AssertEqual(t, "total", g.TaskProgress.Total, 2)

	wrong := []int{2}
	g, err = c.SubmitAnswer(ctx, q.ID, wrong, q.Source)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "wrong", g.Correct, false)
	testutil.AssertEqual(t, "hp change", g.HPChange, -5)
	testutil.AssertEqual(t, "new hp", g.NewHP, 95)
	testutil.AssertEqual(t, "not defeated", g.Defeated, false)
	testutil.AssertEqual(t, "correct indices", slices.Equal(g.CorrectIndices, pool.Correct), true)

	_, err = c.SubmitAnswer(ctx, 999, wrong, q.Source)
	testutil.AssertEqual(t, "unknown question", remote.IsStatus(err, http.StatusNotFound), true)
}

func TestServer_Defeat(t *testing.T) {
	f := newFixture(t, map[string]string{"a.yaml": fractionsYAML})
	c := f.client(t, "player-1")
	ctx := context.Background()
	if _, err := c.GetState(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f.update("player-1", func(r *Record) {
		r.HP = 3
		r.Area = "meadow"
	})

	g, err := c.SubmitAnswer(ctx, QuestionID(1, 0), []int{1}, SourceRandom)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "defeated", g.Defeated, true)
	testutil.AssertEqual(t, "hp floor", g.NewHP, 0)

	_, err = c.Rest(ctx)
	testutil.AssertEqual(t, "rest away from hub", remote.IsStatus(err, http.StatusBadRequest), true)
	testutil.AssertErrorContains(t, err, "Must be in village to rest")

	area, err := c.ReturnToHub(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "returned", string(area), "village")

	ch, err := c.GetState(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "healed", ch.HP, ch.MaxHP)

	v, err := c.Rest(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "rest hp", v.HP, v.MaxHP)
}

func TestServer_LevelUpAnnounced(t *testing.T) {
	f := newFixture(t, map[string]string{"a.yaml": fractionsYAML})
	c := f.client(t, "player-1")
	ctx := context.Background()
	if _, err := c.GetState(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.update("player-1", func(r *Record) { r.XP = 99 })
	name := f.records.Get("player-1").Name

	g, err := c.SubmitAnswer(ctx, QuestionID(1, 0), []int{0}, SourceRandom)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "level up", g.LevelUp, true)
	testutil.AssertEqual(t, "new level", g.NewLevel, 2)
	msgs := f.announced.all()
	testutil.AssertEqual(t, "announced", len(msgs), 1)
	testutil.AssertEqual(t, "message", msgs[0], name+" reached level 2!")
}

func TestServer_SyncQuestions(t *testing.T) {
	f := newFixture(t, map[string]string{"a.yaml": fractionsYAML})
	c := f.client(t, "player-1")
	ctx := context.Background()
	if _, err := c.GetState(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	writeFile(t, f.quizDir, "b.yaml", geometryYAML)
	n, err := c.SyncQuestions(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "count", n, 3)

	writeFile(t, f.quizDir, "c.yaml", "tasks: [\n")
	_, err = c.SyncQuestions(ctx)
	testutil.AssertEqual(t, "broken bank", remote.IsStatus(err, http.StatusInternalServerError), true)
	testutil.AssertEqual(t, "kept old bank", f.bankLen(), 3)
}

func TestServer_NoQuestions(t *testing.T) {
	f := newFixture(t, map[string]string{})
	c := f.client(t, "player-1")
	ctx := context.Background()
	if _, err := c.GetState(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := c.FetchQuestion(ctx)
	testutil.AssertEqual(t, "not found", remote.IsStatus(err, http.StatusNotFound), true)
	testutil.AssertErrorContains(t, err, "No questions available")
}

func TestServer_SelectQuestion(t *testing.T) {
	f := newFixture(t, map[string]string{"a.yaml": fractionsYAML, "b.yaml": geometryYAML})
	rec := &Record{Name: "a", Area: "meadow"}

	for range 50 {
		q, source := f.srv.selectQuestion(rec, 1)
		testutil.AssertEqual(t, "in band", q.Difficulty <= 2, true)
		testutil.AssertEqual(t, "known source", slices.Contains([]string{SourceCurrentTask, SourceRepetition, SourceRandom}, source), true)
	}

	// Nothing in the mountain band except geometry.
	q, _ := f.srv.selectQuestion(rec, 4)
	testutil.AssertEqual(t, "mountain question", q.TaskID, 2)
}

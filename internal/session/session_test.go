package session

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/pixil98/go-quest/internal/game"
	"github.com/pixil98/go-quest/internal/remote"
	"github.com/pixil98/go-quest/internal/storage"
	"github.com/pixil98/go-testutil"
)

func TestPrompt(t *testing.T) {
	tests := map[string]struct {
		input  string
		tries  int
		exp    string
		expErr string
	}{
		"first line":       {input: "abc\n", exp: "abc"},
		"trims":            {input: "  abc \r\n", exp: "abc"},
		"retries":          {input: "\n\nabc\n", exp: "abc"},
		"gives up":         {input: "\n\n\n", tries: 2, expErr: "too many tries"},
		"last line no eol": {input: "abc", exp: "abc"},
		"input ends":       {input: "", expErr: "EOF"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := prompt(&out, bufio.NewReader(strings.NewReader(tt.input)), "Token: ",
				withValidator(validToken),
				withMaxTries(tt.tries),
			)
			if tt.expErr != "" {
				testutil.AssertErrorContains(t, err, tt.expErr)
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			testutil.AssertEqual(t, "value", got, tt.exp)
		})
	}
}

type hubService struct {
	remote.Service
	token string
}

func (h *hubService) GetState(ctx context.Context) (game.Character, error) {
	return game.Character{HP: 90, MaxHP: 100, Level: 1, XPToNext: 100, Area: "village"}, nil
}

type memAreas map[storage.Identifier]*game.Area

func (m memAreas) Save(id storage.Identifier, a *game.Area) error { m[id] = a; return nil }
func (m memAreas) Get(id storage.Identifier) *game.Area           { return m[id] }
func (m memAreas) GetAll() map[storage.Identifier]*game.Area      { return m }

type conn struct {
	io.Reader
	bytes.Buffer
}

func (c *conn) Read(p []byte) (int, error) { return c.Reader.Read(p) }

func TestManager_RunSession(t *testing.T) {
	atlas, err := game.NewAtlas(memAreas{"village": {Name: "Village", Safe: true}}, "village")
	if err != nil {
		t.Fatalf("building atlas: %v", err)
	}

	var svc *hubService
	m := NewManager(atlas, func(token string) (remote.Service, error) {
		svc = &hubService{token: token}
		return svc, nil
	}, WithTickLength(time.Millisecond))

	c := &conn{Reader: strings.NewReader("\nada-lovelace\nlook\nquit\n")}
	if err := m.RunSession(context.Background(), c, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := c.String()
	testutil.AssertEqual(t, "token", svc.token, "ada-lovelace")
	testutil.AssertEqual(t, "asked again", strings.Count(out, "Access token: "), 2)
	testutil.AssertEqual(t, "hud rendered", strings.Contains(out, "[90/100 HP"), true)
	testutil.AssertEqual(t, "described hub", strings.Contains(out, "Village"), true)
	testutil.AssertEqual(t, "farewell", strings.HasSuffix(out, "Farewell.\n"), true)
}

func TestManager_RunSessionWithToken(t *testing.T) {
	atlas, err := game.NewAtlas(memAreas{"village": {Name: "Village", Safe: true}}, "village")
	if err != nil {
		t.Fatalf("building atlas: %v", err)
	}

	var svc *hubService
	m := NewManager(atlas, func(token string) (remote.Service, error) {
		svc = &hubService{token: token}
		return svc, nil
	}, WithTickLength(time.Millisecond))

	c := &conn{Reader: strings.NewReader("quit\n")}
	if err := m.RunSession(context.Background(), c, "grace-hopper"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	testutil.AssertEqual(t, "token", svc.token, "grace-hopper")
	testutil.AssertEqual(t, "not asked", strings.Contains(c.String(), "Access token: "), false)
}

func TestManager_RunSessionServiceError(t *testing.T) {
	atlas, err := game.NewAtlas(memAreas{"village": {Name: "Village", Safe: true}}, "village")
	if err != nil {
		t.Fatalf("building atlas: %v", err)
	}

	m := NewManager(atlas, func(token string) (remote.Service, error) {
		return nil, errors.New("bad url")
	})

	err = m.RunSession(context.Background(), &conn{Reader: strings.NewReader("tok\n")}, "")
	testutil.AssertErrorContains(t, err, "creating service client")
}

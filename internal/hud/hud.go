package hud

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/pixil98/go-quest/internal/display"
	"github.com/pixil98/go-quest/internal/game"
	"github.com/pixil98/go-quest/internal/storage"
)

const DefaultTemplate = `[{{ .HP }}/{{ .MaxHP }} HP {{ bar .Percent 10 }}] Lv {{ .Level }}  XP {{ .XP }} ({{ .XPToNext }} to next)  {{ .Area | default "Unknown" }}`

// AreaNamer resolves an area identifier to its display name.
type AreaNamer interface {
	DisplayName(id storage.Identifier) string
}

// Publisher fans frames out to other observers of the session.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Frame is one rendered HUD state.
type Frame struct {
	HP       int    `json:"hp"`
	MaxHP    int    `json:"max_hp"`
	Percent  int    `json:"percent"`
	XP       int    `json:"xp"`
	XPToNext int    `json:"xp_to_next"`
	Level    int    `json:"level"`
	Area     string `json:"area"`
}

type event struct {
	Type    string `json:"type"`
	Frame   *Frame `json:"frame,omitempty"`
	Message string `json:"message,omitempty"`
}

// Presenter renders pushed character values. It never fetches anything
// itself and keeps no state besides the last frame.
type Presenter struct {
	out   io.Writer
	areas AreaNamer
	tmpl  *template.Template

	pub     Publisher
	subject string

	last Frame
}

var _ game.Projector = (*Presenter)(nil)

func NewPresenter(out io.Writer, areas AreaNamer, opts ...PresenterOpt) (*Presenter, error) {
	p := &Presenter{
		out:   out,
		areas: areas,
	}

	cfg := presenterConfig{format: DefaultTemplate}
	for _, opt := range opts {
		opt(&cfg)
	}

	tmpl, err := template.New("hud").Funcs(funcMap()).Parse(cfg.format)
	if err != nil {
		return nil, fmt.Errorf("parsing hud template: %w", err)
	}
	p.tmpl = tmpl
	p.pub = cfg.pub
	p.subject = cfg.subject

	return p, nil
}

// Percent returns hp as a whole percentage of maxHP, clamped to [0,100].
func Percent(hp, maxHP int) int {
	if maxHP <= 0 {
		return 0
	}
	return min(max(hp*100/maxHP, 0), 100)
}

// Project renders c immediately.
func (p *Presenter) Project(c game.Character) {
	f := Frame{
		HP:       c.HP,
		MaxHP:    c.MaxHP,
		Percent:  Percent(c.HP, c.MaxHP),
		XP:       c.XP,
		XPToNext: c.XPToNext,
		Level:    c.Level,
	}
	if c.Area != "" && p.areas != nil {
		f.Area = p.areas.DisplayName(c.Area)
	}
	p.last = f

	var buf bytes.Buffer
	if err := p.tmpl.Execute(&buf, f); err != nil {
		slog.Warn("rendering hud", "error", err)
		return
	}
	buf.WriteString("\n")
	p.write(buf.Bytes())
	p.publish(event{Type: "hud", Frame: &f})
}

// Notify shows a one-shot message.
func (p *Presenter) Notify(msg string) {
	p.write([]byte(display.Wrap("* "+msg) + "\n"))
	p.publish(event{Type: "notice", Message: msg})
}

// Last returns the most recently projected frame.
func (p *Presenter) Last() Frame {
	return p.last
}

func (p *Presenter) write(b []byte) {
	if _, err := p.out.Write(b); err != nil {
		slog.Debug("writing hud", "error", err)
	}
}

func (p *Presenter) publish(e event) {
	if p.pub == nil {
		return
	}
	data, err := json.Marshal(e)
	if err != nil {
		slog.Warn("encoding hud event", "error", err)
		return
	}
	if err := p.pub.Publish(p.subject, data); err != nil {
		slog.Debug("publishing hud event", "subject", p.subject, "error", err)
	}
}

func funcMap() template.FuncMap {
	fm := sprig.TxtFuncMap()
	fm["bar"] = display.Bar
	return fm
}

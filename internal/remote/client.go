package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pixil98/go-quest/internal/game"
	"github.com/pixil98/go-quest/internal/storage"
)

const (
	PathState       = "/api/game/state"
	PathMove        = "/api/game/move"
	PathQuestion    = "/api/game/encounter/question"
	PathAnswer      = "/api/game/encounter/answer"
	PathRest        = "/api/game/village/rest"
	PathReturn      = "/api/game/village/return"
	PathSync        = "/api/game/sync-questions"
	maxErrorPayload = 4096
)

var errMissingHP = errors.New("incorrect answer without new_hp")

// HTTPClient talks to the game service over JSON/HTTP.
type HTTPClient struct {
	base    *url.URL
	client  *http.Client
	headers http.Header
}

var _ Service = (*HTTPClient)(nil)

func NewHTTPClient(baseURL string, opts ...HTTPClientOpt) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}

	c := &HTTPClient{
		base:    u,
		client:  http.DefaultClient,
		headers: http.Header{},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

func (c *HTTPClient) GetState(ctx context.Context) (game.Character, error) {
	var resp StateResponse
	if err := c.do(ctx, "get state", http.MethodGet, PathState, nil, &resp); err != nil {
		return game.Character{}, err
	}
	return resp.Character.Character(), nil
}

func (c *HTTPClient) Move(ctx context.Context, area storage.Identifier, pos game.Position) (game.Encounter, error) {
	req := MoveRequest{Area: area, X: pos.X, Y: pos.Y}

	var resp MoveResponse
	if err := c.do(ctx, "move", http.MethodPost, PathMove, req, &resp); err != nil {
		return game.Encounter{}, err
	}

	return game.Encounter{
		Occurred:   resp.Encounter,
		Monster:    resp.Monster,
		Difficulty: resp.AreaDifficulty,
		Area:       area,
	}, nil
}

func (c *HTTPClient) FetchQuestion(ctx context.Context) (game.Question, error) {
	var resp QuestionResponse
	if err := c.do(ctx, "fetch question", http.MethodGet, PathQuestion, nil, &resp); err != nil {
		return game.Question{}, err
	}
	if len(resp.Answers) == 0 {
		return game.Question{}, &TransportError{Op: "fetch question", Err: fmt.Errorf("question %d has no answers", resp.QuestionID)}
	}
	return resp.Question(), nil
}

func (c *HTTPClient) SubmitAnswer(ctx context.Context, questionID int, indices []int, source string) (game.Grade, error) {
	req := AnswerRequest{QuestionID: questionID, AnswerIndices: indices, Source: source}

	var resp AnswerResponse
	if err := c.do(ctx, "submit answer", http.MethodPost, PathAnswer, req, &resp); err != nil {
		return game.Grade{}, err
	}

	if !resp.Correct && resp.NewHP == nil {
		return game.Grade{}, &TransportError{Op: "submit answer", Err: errMissingHP}
	}
	return resp.Grade(), nil
}

func (c *HTTPClient) Rest(ctx context.Context) (game.Vitals, error) {
	var resp RestResponse
	if err := c.do(ctx, "rest", http.MethodPost, PathRest, nil, &resp); err != nil {
		return game.Vitals{}, err
	}
	return game.Vitals{HP: resp.HP, MaxHP: resp.MaxHP}, nil
}

func (c *HTTPClient) ReturnToHub(ctx context.Context) (storage.Identifier, error) {
	var resp ReturnResponse
	if err := c.do(ctx, "return to hub", http.MethodPost, PathReturn, nil, &resp); err != nil {
		return "", err
	}
	return resp.Area, nil
}

func (c *HTTPClient) SyncQuestions(ctx context.Context) (int, error) {
	var resp SyncResponse
	if err := c.do(ctx, "sync questions", http.MethodPost, PathSync, nil, &resp); err != nil {
		return 0, err
	}
	return resp.QuestionCount, nil
}

func (c *HTTPClient) do(ctx context.Context, op, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encoding request: %w", op, err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.JoinPath(path).String(), rdr)
	if err != nil {
		return fmt.Errorf("%s: building request: %w", op, err)
	}
	for k, vs := range c.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{Op: op, Status: resp.StatusCode}
		var er ErrorResponse
		if json.NewDecoder(io.LimitReader(resp.Body, maxErrorPayload)).Decode(&er) == nil {
			se.Message = er.Error
		}
		return se
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

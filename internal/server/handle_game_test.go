package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/treasurehunt/internal/hunt"
	"github.com/playperu/treasurehunt/internal/session"
	"github.com/playperu/treasurehunt/internal/store"
)

func testCatalog() *hunt.Catalog {
	c := &hunt.Catalog{Title: "Test Hunt", Letter: "Dear {name}"}
	for i := 1; i <= 2; i++ {
		c.Locations = append(c.Locations, hunt.Location{
			ID:            i,
			Name:          fmt.Sprintf("Location %d", i),
			LocationName:  fmt.Sprintf("Place %d", i),
			Clue:          fmt.Sprintf("clue %d", i),
			Question:      fmt.Sprintf("question %d", i),
			CorrectAnswer: fmt.Sprintf("Answer %d", i),
			TextHint:      fmt.Sprintf("text hint %d", i),
			MapHint:       fmt.Sprintf("https://maps.example/%d", i),
		})
	}
	return c
}

type testEnv struct {
	router chi.Router
	broker *Broker
	tokens *Tokens
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	broker := NewBroker()
	tokens, err := NewTokens("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewTokens: %v", err)
	}
	mem := store.NewMemoryStore()
	games := session.NewManager(testCatalog(), mem, mem, broker, logger, session.Options{
		TickInterval: time.Hour,
	})
	t.Cleanup(func() { games.Flush(context.Background()) })

	return &testEnv{
		router: newRouter(logger, Deps{Games: games, Tokens: tokens, Broker: broker}, nil),
		broker: broker,
		tokens: tokens,
	}
}

func newTestRouter(t *testing.T) chi.Router {
	return newTestEnv(t).router
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decoding %T: %v", v, err)
	}
	return v
}

func (e *testEnv) create(t *testing.T) CreateGameResponse {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/games", "", CreateGameRequest{PlayerName: "Maria", PlayerType: "solo"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	return decode[CreateGameResponse](t, w)
}

func TestCreateGame(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodPost, "/api/games", "", CreateGameRequest{
		PlayerName: "The Smiths",
		PlayerType: "group",
		GroupNames: "Ann, Bob, ",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode[CreateGameResponse](t, w)
	if resp.GameID == "" || resp.Token == "" {
		t.Fatalf("missing id or token: %+v", resp)
	}
	if got, _ := e.tokens.GameID(resp.Token); got != resp.GameID {
		t.Errorf("token subject = %q, want %q", got, resp.GameID)
	}
	if resp.State.Score != 100 || resp.State.Index != 0 || resp.State.TotalLocations != 2 {
		t.Errorf("state = %+v", resp.State)
	}
	if m := resp.State.Player.GroupMembers; len(m) != 2 || m[0] != "Ann" {
		t.Errorf("group members = %v", m)
	}
}

func TestCreateGameValidation(t *testing.T) {
	e := newTestEnv(t)

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{`},
		{"missing name", `{"playerType":"solo"}`},
		{"blank name", `{"playerName":"   "}`},
		{"unknown type", `{"playerName":"Ann","playerType":"team"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/games", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			e.router.ServeHTTP(w, req)
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", w.Code)
			}
		})
	}
}

func TestGameRoutesRequireToken(t *testing.T) {
	e := newTestEnv(t)

	other, _ := NewTokens("other-secret", time.Hour)
	forged, _ := other.Issue("some-game")

	for _, token := range []string{"", "not-a-jwt", forged} {
		w := e.do(t, http.MethodGet, "/api/game/state", token, nil)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("token %q: expected 401, got %d", token, w.Code)
		}
	}
}

func TestUnknownGame(t *testing.T) {
	e := newTestEnv(t)
	token, _ := e.tokens.Issue("does-not-exist")

	w := e.do(t, http.MethodGet, "/api/game/state", token, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestPlayGame(t *testing.T) {
	e := newTestEnv(t)
	game := e.create(t)
	tok := game.Token

	// Nothing to answer at the starting point.
	w := e.do(t, http.MethodPost, "/api/game/name", tok, NameRequest{Name: "Place 1"})
	if w.Code != http.StatusConflict {
		t.Fatalf("name before start: expected 409, got %d", w.Code)
	}

	w = e.do(t, http.MethodPost, "/api/game/start", tok, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("start: expected 200, got %d", w.Code)
	}
	start := decode[StartResponse](t, w)
	if !start.Started || start.State.Index != 1 || start.State.Current == nil {
		t.Fatalf("start = %+v", start)
	}
	if start.State.Current.Question != "" || start.State.Current.Name != "" {
		t.Error("question or name visible before the name is confirmed")
	}

	w = e.do(t, http.MethodPost, "/api/game/name", tok, NameRequest{Name: "   "})
	if w.Code != http.StatusBadRequest {
		t.Errorf("blank name: expected 400, got %d", w.Code)
	}

	w = e.do(t, http.MethodPost, "/api/game/answer", tok, AnswerRequest{Answer: "answer 1"})
	if ans := decode[AnswerResponse](t, w); ans.Correct || ans.Outcome != hunt.NameNotConfirmed {
		t.Errorf("answer before name = %+v", ans)
	}

	w = e.do(t, http.MethodPost, "/api/game/name", tok, NameRequest{Name: "Somewhere"})
	if n := decode[NameResponse](t, w); n.Correct {
		t.Error("wrong name accepted")
	}
	w = e.do(t, http.MethodPost, "/api/game/name", tok, NameRequest{Name: "the place 1"})
	if n := decode[NameResponse](t, w); !n.Correct {
		t.Errorf("name = %+v", n)
	}

	w = e.do(t, http.MethodPost, "/api/game/hints/text", tok, nil)
	text := decode[TextHintResponse](t, w)
	if text.Content != "text hint 1" || text.CostCharged != 30 || text.Score != 70 {
		t.Errorf("text hint = %+v", text)
	}
	w = e.do(t, http.MethodPost, "/api/game/hints/map", tok, nil)
	mh := decode[MapHintResponse](t, w)
	if mh.Text != "https://maps.example/1" || mh.LocationName != "Location 1" || mh.CostCharged != 50 || mh.Score != 20 {
		t.Errorf("map hint = %+v", mh)
	}
	w = e.do(t, http.MethodPost, "/api/game/hints/map", tok, nil)
	if again := decode[MapHintResponse](t, w); again.CostCharged != 0 || again.Score != 20 {
		t.Errorf("second map hint = %+v", again)
	}

	w = e.do(t, http.MethodPost, "/api/game/answer", tok, AnswerRequest{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty answer: expected 400, got %d", w.Code)
	}
	w = e.do(t, http.MethodPost, "/api/game/answer", tok, AnswerRequest{Answer: "ANSWER 1"})
	ans := decode[AnswerResponse](t, w)
	if !ans.Correct || ans.PointsAwarded != 100 || ans.GameComplete {
		t.Fatalf("answer 1 = %+v", ans)
	}

	w = e.do(t, http.MethodPost, "/api/game/pause", tok, nil)
	if p := decode[TimerResponse](t, w); !p.Changed || p.State.TimerStatus != "paused" {
		t.Errorf("pause = %+v", p)
	}
	w = e.do(t, http.MethodPost, "/api/game/resume", tok, nil)
	if p := decode[TimerResponse](t, w); !p.Changed || p.State.TimerStatus != "running" {
		t.Errorf("resume = %+v", p)
	}

	w = e.do(t, http.MethodPost, "/api/game/advance", tok, nil)
	adv := decode[AdvanceResponse](t, w)
	if !adv.Advanced || adv.State.Index != 2 {
		t.Fatalf("advance = %+v", adv)
	}

	e.do(t, http.MethodPost, "/api/game/name", tok, NameRequest{Name: "place 2"})
	w = e.do(t, http.MethodPost, "/api/game/answer", tok, AnswerRequest{Answer: "answer 2"})
	ans = decode[AnswerResponse](t, w)
	if !ans.GameComplete || ans.FinalStats == nil || ans.FinalStats.Score != 220 {
		t.Fatalf("final answer = %+v", ans)
	}
	if ans.FinalStats.PersonalMessage != "Dear Maria" {
		t.Errorf("letter = %q", ans.FinalStats.PersonalMessage)
	}

	w = e.do(t, http.MethodPost, "/api/game/advance", tok, nil)
	if w.Code != http.StatusConflict {
		t.Errorf("advance after finish: expected 409, got %d", w.Code)
	}

	w = e.do(t, http.MethodGet, "/api/game/state", tok, nil)
	if st := decode[session.State](t, w); !st.Finished || st.FinalStats == nil {
		t.Errorf("finished state = %+v", st)
	}

	w = e.do(t, http.MethodGet, "/api/leaderboard?type=solo", "", nil)
	board := decode[LeaderboardResponse](t, w)
	if len(board.Entries) != 1 || board.Entries[0].PlayerName != "Maria" || board.Entries[0].Rank != 1 {
		t.Fatalf("leaderboard = %+v", board)
	}
}

func TestAbandonGame(t *testing.T) {
	e := newTestEnv(t)
	game := e.create(t)

	w := e.do(t, http.MethodDelete, "/api/game", game.Token, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	w = e.do(t, http.MethodGet, "/api/game/state", game.Token, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("state after abandon: expected 404, got %d", w.Code)
	}
}

func TestLeaderboardValidation(t *testing.T) {
	e := newTestEnv(t)

	tests := []struct {
		query string
		want  int
	}{
		{"", http.StatusOK},
		{"?type=group&limit=5", http.StatusOK},
		{"?type=team", http.StatusBadRequest},
		{"?limit=0", http.StatusBadRequest},
		{"?limit=ten", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := e.do(t, http.MethodGet, "/api/leaderboard"+tt.query, "", nil)
			if w.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, w.Code)
			}
		})
	}

	w := e.do(t, http.MethodGet, "/api/leaderboard", "", nil)
	if body := w.Body.String(); !strings.Contains(body, `"entries":[]`) {
		t.Errorf("empty leaderboard should have an empty list: %s", body)
	}
}

func TestEventStream(t *testing.T) {
	e := newTestEnv(t)
	game := e.create(t)
	srv := httptest.NewServer(e.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/game/events?token="+game.Token, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("connecting: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content-type = %q", ct)
	}

	lines := bufio.NewReader(resp.Body)
	next := func() string {
		for {
			line, err := lines.ReadString('\n')
			if err != nil {
				t.Fatalf("reading stream: %v", err)
			}
			if name, ok := strings.CutPrefix(line, "event: "); ok {
				return strings.TrimSpace(name)
			}
		}
	}

	if got := next(); got != string(session.EventTime) {
		t.Fatalf("first event = %q, want time", got)
	}

	for e.broker.Subscribers(game.GameID) == 0 {
		time.Sleep(time.Millisecond)
	}
	e.do(t, http.MethodPost, "/api/game/start", game.Token, nil)
	if got := next(); got != string(session.EventAdvanced) {
		t.Errorf("event after start = %q, want advanced", got)
	}
}

func TestEventStreamRequiresToken(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(t, http.MethodGet, "/api/game/events", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

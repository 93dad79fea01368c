package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	"github.com/reddragon-server/internal/config"
	"github.com/reddragon-server/internal/domain"
	"github.com/reddragon-server/internal/service"
	"github.com/reddragon-server/internal/websocket"
)

// memStore backs the HTTP tests with an in-memory player and news store.
type memStore struct {
	players map[string]*domain.Player
	events  []domain.Event
	nextID  int64
}

func newMemStore() *memStore {
	return &memStore{players: make(map[string]*domain.Player)}
}

func (m *memStore) key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (m *memStore) CreatePlayer(ctx context.Context, p domain.Player) (*domain.Player, error) {
	if _, ok := m.players[m.key(p.Name)]; ok {
		return nil, domain.ErrNameTaken
	}
	m.nextID++
	p.ID = m.nextID
	p.Version = 1
	stored := p
	m.players[m.key(p.Name)] = &stored
	copied := stored
	return &copied, nil
}

func (m *memStore) GetPlayerByName(ctx context.Context, name string) (*domain.Player, error) {
	p, ok := m.players[m.key(name)]
	if !ok {
		return nil, domain.ErrPlayerNotFound
	}
	copied := *p
	return &copied, nil
}

func (m *memStore) SavePlayer(ctx context.Context, p *domain.Player) error {
	stored, ok := m.players[m.key(p.Name)]
	if !ok {
		return domain.ErrPlayerNotFound
	}
	if stored.Version != p.Version {
		return domain.ErrConflict
	}
	p.Version++
	copied := *p
	m.players[m.key(p.Name)] = &copied
	return nil
}

func (m *memStore) SavePlayers(ctx context.Context, players ...*domain.Player) error {
	for _, p := range players {
		if err := m.SavePlayer(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (m *memStore) ListPlayers(ctx context.Context) ([]domain.PlayerInfo, error) {
	var infos []domain.PlayerInfo
	for _, p := range m.players {
		infos = append(infos, p.Info())
	}
	return infos, nil
}

func (m *memStore) ListOpponents(ctx context.Context, excludeID int64) ([]domain.PlayerInfo, error) {
	var infos []domain.PlayerInfo
	for _, p := range m.players {
		if p.ID == excludeID || !p.Alive || p.DefeatedToday {
			continue
		}
		infos = append(infos, p.Info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

func (m *memStore) TopPlayers(ctx context.Context, limit int) ([]domain.PlayerInfo, error) {
	infos, _ := m.ListPlayers(ctx)
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].Level != infos[j].Level {
			return infos[i].Level > infos[j].Level
		}
		return infos[i].Exp > infos[j].Exp
	})
	if len(infos) > limit {
		infos = infos[:limit]
	}
	return infos, nil
}

func (m *memStore) AppendEvent(ctx context.Context, event domain.Event) error {
	m.events = append(m.events, event)
	return nil
}

func (m *memStore) ListRecentEvents(ctx context.Context, limit int) ([]domain.Event, error) {
	events := make([]domain.Event, 0, limit)
	for i := len(m.events) - 1; i >= 0 && len(events) < limit; i-- {
		events = append(events, m.events[i])
	}
	return events, nil
}

func testServer(t *testing.T) (*httptest.Server, *memStore) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := newMemStore()
	newsCfg := &config.NewsConfig{DefaultLimit: 10, MaxLimit: 100}
	svc := service.NewGameService(store, store, nil, domain.DefaultRules(), newsCfg, logger)

	hub := websocket.NewHub(logger)
	h := NewHandler(svc, hub, logger)

	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)
	return srv, store
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decodeResponse(t *testing.T, resp *http.Response) APIResponse {
	t.Helper()
	defer resp.Body.Close()
	var out APIResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestRegisterAndGetCharacter(t *testing.T) {
	srv, _ := testServer(t)

	resp := postJSON(t, srv.URL+"/api/v1/players", map[string]string{
		"name": "Aldric", "password": "secret",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status = %d, want 201", resp.StatusCode)
	}
	out := decodeResponse(t, resp)
	if !out.Success {
		t.Fatalf("register failed: %s", out.Error)
	}

	getResp, err := http.Get(srv.URL + "/api/v1/players/Aldric/")
	if err != nil {
		t.Fatalf("GET character: %v", err)
	}
	if getResp.StatusCode != http.StatusOK {
		t.Fatalf("character status = %d, want 200", getResp.StatusCode)
	}
	out = decodeResponse(t, getResp)
	sheet, ok := out.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("unexpected character payload: %T", out.Data)
	}
	if sheet["name"] != "Aldric" || sheet["level"] != float64(1) || sheet["gold"] != float64(100) {
		t.Fatalf("character sheet wrong: %v", sheet)
	}
}

func TestRegisterDuplicateConflict(t *testing.T) {
	srv, _ := testServer(t)

	postJSON(t, srv.URL+"/api/v1/players", map[string]string{"name": "Brina"}).Body.Close()
	resp := postJSON(t, srv.URL+"/api/v1/players", map[string]string{"name": "brina"})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate register status = %d, want 409", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestGetCharacterNotFound(t *testing.T) {
	srv, _ := testServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/players/Nobody/")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestLoginWrongPassword(t *testing.T) {
	srv, _ := testServer(t)

	postJSON(t, srv.URL+"/api/v1/players", map[string]string{
		"name": "Cedric", "password": "right",
	}).Body.Close()

	resp := postJSON(t, srv.URL+"/api/v1/login", map[string]string{
		"name": "Cedric", "password": "wrong",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestForestFightEndpoint(t *testing.T) {
	srv, store := testServer(t)

	postJSON(t, srv.URL+"/api/v1/players", map[string]string{"name": "Dara"}).Body.Close()
	store.players["dara"].Attack = 500
	store.players["dara"].MaxHP = 5000
	store.players["dara"].CurrentHP = 5000

	resp := postJSON(t, srv.URL+"/api/v1/players/Dara/forest-fight", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	out := decodeResponse(t, resp)
	outcome, ok := out.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("unexpected outcome payload: %T", out.Data)
	}
	if outcome["fights_remaining"] != float64(9) {
		t.Fatalf("fights_remaining = %v, want 9", outcome["fights_remaining"])
	}
}

func TestForestFightQuotaExhausted(t *testing.T) {
	srv, store := testServer(t)

	postJSON(t, srv.URL+"/api/v1/players", map[string]string{"name": "Edmund"}).Body.Close()
	store.players["edmund"].ForestFights = 0

	resp := postJSON(t, srv.URL+"/api/v1/players/Edmund/forest-fight", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}
	out := decodeResponse(t, resp)
	if out.Success || out.Error == "" {
		t.Fatalf("expected error envelope, got %+v", out)
	}
}

func TestDuelEndpointRequiresTarget(t *testing.T) {
	srv, _ := testServer(t)

	postJSON(t, srv.URL+"/api/v1/players", map[string]string{"name": "Fiora"}).Body.Close()

	resp := postJSON(t, srv.URL+"/api/v1/players/Fiora/duel", map[string]string{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestNewsAndLeaderboardEndpoints(t *testing.T) {
	srv, store := testServer(t)

	postJSON(t, srv.URL+"/api/v1/players", map[string]string{"name": "Gareth"}).Body.Close()
	postJSON(t, srv.URL+"/api/v1/players", map[string]string{"name": "Helga"}).Body.Close()
	store.players["helga"].Level = 4
	store.AppendEvent(context.Background(),
		domain.NewEvent(domain.EventLevelUp, "Helga has reached Level 4!", "Helga", ""))

	resp, err := http.Get(srv.URL + "/api/v1/news")
	if err != nil {
		t.Fatalf("GET news: %v", err)
	}
	out := decodeResponse(t, resp)
	entries, ok := out.Data.([]interface{})
	if !ok || len(entries) != 1 {
		t.Fatalf("news payload wrong: %+v", out.Data)
	}

	resp, err = http.Get(srv.URL + "/api/v1/leaderboard?limit=5")
	if err != nil {
		t.Fatalf("GET leaderboard: %v", err)
	}
	out = decodeResponse(t, resp)
	board, ok := out.Data.([]interface{})
	if !ok || len(board) != 2 {
		t.Fatalf("leaderboard payload wrong: %+v", out.Data)
	}
	first, _ := board[0].(map[string]interface{})
	if first["name"] != "Helga" {
		t.Fatalf("expected Helga first, got %v", first)
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := testServer(t)

	for _, path := range []string{"/health", "/ready"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s status = %d, want 200", path, resp.StatusCode)
		}
		resp.Body.Close()
	}
}

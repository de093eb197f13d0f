package app

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"astrascore/internal/config"
	"astrascore/internal/scoreboard"
	"astrascore/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() config.Config {
	return config.Config{
		HTTPAddr:          "127.0.0.1:0",
		StoreDriver:       config.DriverMemory,
		TickInterval:      time.Hour,
		PollInterval:      time.Millisecond,
		ReconcileInterval: 0,
		LogLevel:          "info",
		LogFormat:         "text",
	}
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	cfg := testConfig()
	st, err := OpenStore(ctx, cfg, discard())
	require.NoError(t, err)
	assert.IsType(t, &store.Memory{}, st)

	cfg.StoreDriver = config.DriverSQLite
	cfg.SQLitePath = filepath.Join(t.TempDir(), "astrascore.db")
	st, err = OpenStore(ctx, cfg, discard())
	require.NoError(t, err)
	assert.IsType(t, &store.SQLite{}, st)
	require.NoError(t, st.Close())

	cfg.StoreDriver = "mongo"
	_, err = OpenStore(ctx, cfg, discard())
	assert.Error(t, err)
}

func TestHandlerServesAPI(t *testing.T) {
	a := NewWithStore(testConfig(), discard(), store.NewMemory())

	rec := httptest.NewRecorder()
	a.Handler(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events/demo-football/board", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"clock":"42:15"`)

	rec = httptest.NewRecorder()
	a.Handler(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "astrascore_http_requests_total")
}

func TestServeStopsOnCancel(t *testing.T) {
	a := NewWithStore(testConfig(), discard(), store.NewMemory())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

const festivalsYAML = `
name: Spring Fest
organizer: Student Council
dates: 12-14 March
subEvents:
  - name: Football
    category: sports
    type: Football
    stages:
      - name: Final
        type: knockout
        scoreboardConfig:
          teams:
            - name: Red
            - name: Blue
entities:
  - name: Red
    shortCode: RED
  - name: Blue
    shortCode: BLU
---
name: Winter Quiz
subEvents:
  - name: Quiz
    category: academic
    stages:
      - name: Round 1
`

func TestImportFestivals(t *testing.T) {
	ctx := context.Background()
	a := NewWithStore(testConfig(), discard(), store.NewMemory())

	saved, err := ImportFestivals(ctx, a.Festivals, strings.NewReader(festivalsYAML))
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Equal(t, "Spring Fest", saved[0].Name)
	assert.Equal(t, "12-14 March", saved[0].Dates)

	boardID := saved[0].SubEvents[0].Stages[0].ScoreboardConfig.ID
	ev, err := a.Events.GetEvent(ctx, boardID)
	require.NoError(t, err)
	assert.Equal(t, "Football - Final", ev.Name)
	assert.Equal(t, "Spring Fest", ev.Scale)

	list, err := a.Festivals.ListFestivals(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestDecodeFestivalsRejectsBadInput(t *testing.T) {
	_, err := DecodeFestivals(strings.NewReader(""))
	assert.Error(t, err)

	_, err = DecodeFestivals(strings.NewReader("name: X\nsponsor: nobody\n"))
	assert.Error(t, err, "unknown fields are rejected")
}

func TestRenderBoard(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderBoard(&buf, scoreboard.BoardFor(scoreboard.DemoEvents()[0])))
	out := buf.String()
	assert.Contains(t, out, "Inter-High Football Final  [LIVE]")
	assert.Contains(t, out, "42:15 >  1st Half")
	assert.Contains(t, out, "Red Dragons")
	assert.Contains(t, out, "Goal! Red Dragons (40')")

	buf.Reset()
	quiz := scoreboard.DemoEvents()[1]
	quiz.Teams[2].Score = 5
	require.NoError(t, RenderBoard(&buf, scoreboard.BoardFor(quiz)))
	lines := strings.Split(buf.String(), "\n")
	assert.Contains(t, lines[4], "1.")
	assert.Contains(t, lines[4], "Team Gamma")
}

func TestFollowBoardEndsOnMissingEvent(t *testing.T) {
	a := NewWithStore(testConfig(), discard(), store.NewMemory())
	err := FollowBoard(context.Background(), a.Events, "nope", time.Millisecond, io.Discard)
	assert.ErrorIs(t, err, scoreboard.ErrNotFound)
}

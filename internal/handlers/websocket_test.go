package handlers_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pomo1231/solbombs2/internal/handlers"
	"github.com/pomo1231/solbombs2/internal/middleware"
	"github.com/pomo1231/solbombs2/internal/models"
	"github.com/pomo1231/solbombs2/internal/services"
)

type wsFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func dialHub(t *testing.T, s *testServer, ws *handlers.WebSocketHandler, token string) *websocket.Conn {
	t.Helper()
	router := gin.New()
	router.GET("/api/ws", middleware.AuthMiddleware(s.jwt), ws.HandleWebSocket)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn, want string) wsFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var f wsFrame
		require.NoError(t, conn.ReadJSON(&f))
		if f.Type == want {
			return f
		}
	}
}

func TestWebSocketPushesSettlements(t *testing.T) {
	s := newTestServer(t)
	ws := handlers.NewWebSocketHandler(s.engine)
	s.engine.SetBroadcaster(ws)

	alice, aliceToken := s.player("alice")
	_, bobToken := s.player("bob")
	aliceConn := dialHub(t, s, ws, aliceToken)
	bobConn := dialHub(t, s, ws, bobToken)

	f := readFrame(t, aliceConn, handlers.MessageBalanceUpdate)
	var bal models.BalanceResponse
	require.NoError(t, json.Unmarshal(f.Data, &bal))
	assert.Equal(t, alice, bal.Address)
	assert.Equal(t, playerFunds, bal.Balance)
	readFrame(t, bobConn, handlers.MessageBalanceUpdate)

	require.NoError(t, aliceConn.WriteJSON(gin.H{"type": handlers.MessagePing}))
	readFrame(t, aliceConn, handlers.MessagePong)

	_, err := s.engine.StartSolo(context.Background(), alice, 0, wager, 3)
	require.NoError(t, err)

	f = readFrame(t, aliceConn, handlers.MessageSettlement)
	var evt models.SettlementEvent
	require.NoError(t, json.Unmarshal(f.Data, &evt))
	assert.Equal(t, models.EventSoloStart, evt.Kind)
	assert.Equal(t, alice, evt.Actor)

	// Treasury snapshots go to everyone; alice's start did not reach bob.
	_, err = s.engine.SnapshotTreasury(context.Background())
	require.NoError(t, err)
	f = readFrame(t, bobConn, handlers.MessageSettlement)
	require.NoError(t, json.Unmarshal(f.Data, &evt))
	assert.Equal(t, models.EventTreasurySnapshot, evt.Kind)
}

func TestWebSocketRequiresToken(t *testing.T) {
	s := newTestServer(t)
	ws := handlers.NewWebSocketHandler(s.engine)

	router := gin.New()
	router.GET("/api/ws", middleware.AuthMiddleware(s.jwt), ws.HandleWebSocket)
	srv := httptest.NewServer(router)
	defer srv.Close()

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/ws", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestWebSocketResolveReachesBothParties(t *testing.T) {
	s := newTestServer(t)
	ws := handlers.NewWebSocketHandler(s.engine)
	s.engine.SetBroadcaster(ws)

	alice, aliceToken := s.player("alice")
	bob, bobToken := s.player("bob")
	carol, _ := s.player("carol")

	ctx := context.Background()
	_, err := s.engine.StartPvp(ctx, alice, 0, wager, false)
	require.NoError(t, err)
	_, err = s.engine.JoinPvp(ctx, bob, alice, 0)
	require.NoError(t, err)

	aliceConn := dialHub(t, s, ws, aliceToken)
	bobConn := dialHub(t, s, ws, bobToken)
	readFrame(t, aliceConn, handlers.MessageBalanceUpdate)
	readFrame(t, bobConn, handlers.MessageBalanceUpdate)

	// carol resolves; bob wins, alice only appears as a party.
	_, err = s.engine.ResolvePvp(ctx, carol, services.ResolvePvpParams{
		Creator:        alice,
		WinnerSide:     models.WinnerCounterparty,
		CreatorAccount: alice,
		JoinerAccount:  bob,
	})
	require.NoError(t, err)

	for _, conn := range []*websocket.Conn{aliceConn, bobConn} {
		f := readFrame(t, conn, handlers.MessageSettlement)
		var evt models.SettlementEvent
		require.NoError(t, json.Unmarshal(f.Data, &evt))
		assert.Equal(t, models.EventPvpResolve, evt.Kind)
		assert.Equal(t, carol, evt.Actor)
		assert.Equal(t, []models.Address{alice, bob}, evt.Parties)
	}
}

func TestWebSocketRobotWinReachesCreator(t *testing.T) {
	s := newTestServer(t)
	ws := handlers.NewWebSocketHandler(s.engine)
	s.engine.SetBroadcaster(ws)

	alice, aliceToken := s.player("alice")
	carol, _ := s.player("carol")

	ctx := context.Background()
	_, err := s.engine.StartPvp(ctx, alice, 0, wager, true)
	require.NoError(t, err)

	aliceConn := dialHub(t, s, ws, aliceToken)
	readFrame(t, aliceConn, handlers.MessageBalanceUpdate)

	_, err = s.engine.ResolvePvp(ctx, carol, services.ResolvePvpParams{
		Creator:        alice,
		WinnerSide:     models.WinnerCounterparty,
		CreatorAccount: alice,
	})
	require.NoError(t, err)

	f := readFrame(t, aliceConn, handlers.MessageSettlement)
	var evt models.SettlementEvent
	require.NoError(t, json.Unmarshal(f.Data, &evt))
	assert.Equal(t, models.EventPvpResolve, evt.Kind)
	assert.Equal(t, "robot_won", evt.Note)
}

package session_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"convene/internal/handlers/session"
	"convene/internal/models"
	"convene/internal/orchestrator"
	"convene/internal/registry"
	"convene/internal/rooms"
	"convene/internal/server"
	"convene/internal/ws"
)

const testSecret = "test-secret"

type apiEnvelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func setupServer(t *testing.T) *httptest.Server {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := registry.NewRedisStore(client, time.Hour, log.WithField("component", "store"))

	catalog := rooms.NewCatalog(rooms.PoolSizes{Dyad: 4, Triad: 3, Quad: 2, Kiva: 1}, "rooms.test")
	tracker := rooms.NewTracker(catalog)
	allocator := rooms.NewAllocator(catalog, tracker, nil, log.WithField("component", "allocator"))

	reg := registry.New(store, tracker, allocator, nil, log.WithField("component", "registry"))
	orc := orchestrator.New(orchestrator.DefaultPlan, reg, log.WithField("component", "orchestrator"))
	hubs := ws.NewHubs(log.WithField("component", "ws"))

	srv := server.NewServer(":0", testSecret, 24, reg, orc, tracker, hubs, log)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url, token string, body interface{}) (int, apiEnvelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader([]byte("{}"))
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env apiEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func createSession(t *testing.T, ts *httptest.Server) session.CreateSessionResponse {
	t.Helper()
	status, env := doJSON(t, http.MethodPost, ts.URL+"/sessions", "", session.CreateSessionRequest{
		HostName:        "Hosting Person",
		DurationMinutes: 120,
	})
	require.Equal(t, http.StatusCreated, status)
	var created session.CreateSessionResponse
	require.NoError(t, json.Unmarshal(env.Data, &created))
	return created
}

func joinN(t *testing.T, ts *httptest.Server, code string, n int) []session.JoinSessionResponse {
	t.Helper()
	var joined []session.JoinSessionResponse
	for i := 0; i < n; i++ {
		status, env := doJSON(t, http.MethodPost, ts.URL+"/sessions/"+code+"/join", "", session.JoinSessionRequest{
			Name: fmt.Sprintf("person %d", i),
		})
		require.Equal(t, http.StatusOK, status)
		var jr session.JoinSessionResponse
		require.NoError(t, json.Unmarshal(env.Data, &jr))
		joined = append(joined, jr)
	}
	return joined
}

func TestSessionLifecycleOverHTTP(t *testing.T) {
	ts := setupServer(t)
	created := createSession(t, ts)
	require.NotEmpty(t, created.JoinCode)
	require.NotEmpty(t, created.HostToken)

	// schedule computed at creation: 120 minutes is the 120 tier
	require.NotNil(t, created.Record.Schedule)
	assert.Equal(t, 35, created.Record.Schedule.Phases[0].Minutes)

	joined := joinN(t, ts, created.JoinCode, 6)
	base := ts.URL + "/sessions/" + created.SessionID

	// allocation requires the host token
	status, _ := doJSON(t, http.MethodPost, base+"/assign", "", session.CreateSessionRequest{})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, env := doJSON(t, http.MethodPost, base+"/assign", created.HostToken, map[string]string{"room_type": "dyad"})
	require.Equal(t, http.StatusOK, status)
	var rec models.SessionRecord
	require.NoError(t, json.Unmarshal(env.Data, &rec))
	assert.Equal(t, models.StatusRoomsAssigned, rec.Status)

	// a participant resolves its room
	status, env = doJSON(t, http.MethodGet, base+"/participants/"+joined[0].ParticipantID+"/room", "", nil)
	require.Equal(t, http.StatusOK, status)
	var room models.ParticipantRoom
	require.NoError(t, json.Unmarshal(env.Data, &room))
	assert.Equal(t, models.RoomDyad, room.RoomType)

	// host resolves to the main room
	status, env = doJSON(t, http.MethodGet, base+"/participants/"+created.Record.HostID+"/room", "", nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &room))
	assert.Equal(t, models.RoomMain, room.RoomType)

	// stats see three dyads in use
	status, env = doJSON(t, http.MethodGet, ts.URL+"/stats", "", nil)
	require.Equal(t, http.StatusOK, status)
	var stats rooms.Stats
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, 3, stats.UsedByType[models.RoomDyad])

	// end the session
	status, _ = doJSON(t, http.MethodDelete, base, created.HostToken, nil)
	require.Equal(t, http.StatusOK, status)
	status, _ = doJSON(t, http.MethodGet, base, "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestOrchestratedFlowOverHTTP(t *testing.T) {
	ts := setupServer(t)
	created := createSession(t, ts)
	joinN(t, ts, created.JoinCode, 4)
	base := ts.URL + "/sessions/" + created.SessionID

	status, env := doJSON(t, http.MethodPost, base+"/start", created.HostToken, nil)
	require.Equal(t, http.StatusOK, status)
	var rec models.SessionRecord
	require.NoError(t, json.Unmarshal(env.Data, &rec))
	assert.Equal(t, models.StatusMainRoomActive, rec.Status)

	// Catalyst -> Dialogue triggers a dyad allocation
	status, env = doJSON(t, http.MethodPost, base+"/advance", created.HostToken, nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &rec))
	assert.Equal(t, models.StatusDialogueActive, rec.Status)
	require.NotNil(t, rec.RoomAssignments)
	assert.Equal(t, models.RoomDyad, rec.RoomConfiguration.RoomType)

	// jump straight to Discover Dialogue (configurable, default quad)
	status, env = doJSON(t, http.MethodPost, base+"/jump", created.HostToken, map[string]int{"phase": 2, "substage": 1})
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &rec))
	assert.Equal(t, 2, rec.PhaseIndex)
	assert.Equal(t, models.RoomQuad, rec.RoomConfiguration.RoomType)
}

func TestAssignInsufficientCapacityOverHTTP(t *testing.T) {
	ts := setupServer(t)
	created := createSession(t, ts)
	joinN(t, ts, created.JoinCode, 10) // needs 2 kiva rooms, pool has 1
	base := ts.URL + "/sessions/" + created.SessionID

	status, env := doJSON(t, http.MethodPost, base+"/assign", created.HostToken, map[string]string{"room_type": "kiva"})
	assert.Equal(t, http.StatusConflict, status)
	assert.False(t, env.Success)

	// registry unchanged
	status, env = doJSON(t, http.MethodGet, base, "", nil)
	require.Equal(t, http.StatusOK, status)
	var rec models.SessionRecord
	require.NoError(t, json.Unmarshal(env.Data, &rec))
	assert.Nil(t, rec.RoomAssignments)
	assert.Equal(t, models.StatusWaiting, rec.Status)
}

func TestHostTokenIsSessionScoped(t *testing.T) {
	ts := setupServer(t)
	first := createSession(t, ts)
	second := createSession(t, ts)

	// the first session's token cannot drive the second session
	status, _ := doJSON(t, http.MethodPost, ts.URL+"/sessions/"+second.SessionID+"/start", first.HostToken, nil)
	assert.Equal(t, http.StatusForbidden, status)
}

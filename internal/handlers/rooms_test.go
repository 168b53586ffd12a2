package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jaykim98z/jandibat-live-draft/internal/models"
	"github.com/Jaykim98z/jandibat-live-draft/internal/store"
	"github.com/Jaykim98z/jandibat-live-draft/internal/token"
)

func newTestRouter(t *testing.T) (*gin.Engine, store.Store, *token.Issuer) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := store.NewBunt(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	tokens := token.NewIssuer("test-secret", time.Hour)
	h := NewRoomHandler(st, tokens)

	router := gin.New()
	router.POST("/api/rooms", h.Create)
	router.GET("/api/rooms", h.List)
	router.GET("/api/rooms/:code", h.Get)
	router.POST("/api/rooms/:code/join", h.Join)
	return router, st, tokens
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func createRoom(t *testing.T, router *gin.Engine, body map[string]any) map[string]any {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/rooms", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeBody(t, w)
}

func validCreateBody() map[string]any {
	return map[string]any{
		"title": "friday draft",
		"host": map[string]any{
			"handle":   "streamer",
			"nickname": "Streamer",
			"position": "ST",
		},
	}
}

func TestCreateRoom(t *testing.T) {
	router, st, tokens := newTestRouter(t)

	resp := createRoom(t, router, validCreateBody())

	assert.Equal(t, true, resp["isHost"])
	assert.NotEmpty(t, resp["participantId"])
	require.NotEmpty(t, resp["token"])

	room := resp["room"].(map[string]any)
	code := room["code"].(string)
	assert.Len(t, code, models.RoomCodeLength)
	assert.Equal(t, "waiting", room["status"])
	assert.Equal(t, float64(1), room["participantCount"])

	// Token binds the founder to this room.
	claims, err := tokens.Parse(resp["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, code, claims.RoomCode)
	assert.Equal(t, resp["participantId"], claims.ParticipantID)

	// Defaults applied when no settings block was sent.
	stored, err := st.FindRoom(context.Background(), code)
	require.NoError(t, err)
	assert.Equal(t, models.DraftShuffle, stored.Settings.DraftType)
	assert.Equal(t, models.DefaultTurnTime, stored.Settings.TurnTime)
	assert.Equal(t, models.MaxParticipants, stored.Settings.MaxParticipants)
	assert.True(t, stored.Participants[0].IsHost)
	assert.True(t, stored.Participants[0].IsReady)
}

func TestCreateRoomValidation(t *testing.T) {
	router, _, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/rooms", map[string]any{
		"host": map[string]any{"handle": "x", "nickname": "x", "position": "ST"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, "missing title")

	body := validCreateBody()
	body["host"].(map[string]any)["position"] = "QB"
	w = doJSON(t, router, http.MethodPost, "/api/rooms", body)
	assert.Equal(t, http.StatusBadRequest, w.Code, "unknown position")
	resp := decodeBody(t, w)
	assert.Contains(t, resp, "validPositions")

	body = validCreateBody()
	body["settings"] = map[string]any{"draftType": "lottery"}
	w = doJSON(t, router, http.MethodPost, "/api/rooms", body)
	assert.Equal(t, http.StatusBadRequest, w.Code, "unknown draft type")
}

func TestGetRoom(t *testing.T) {
	router, _, _ := newTestRouter(t)

	body := validCreateBody()
	body["settings"] = map[string]any{"password": "hunter2"}
	resp := createRoom(t, router, body)
	code := resp["room"].(map[string]any)["code"].(string)

	w := doJSON(t, router, http.MethodGet, "/api/rooms/"+code, nil)
	require.Equal(t, http.StatusOK, w.Code)
	room := decodeBody(t, w)["room"].(map[string]any)
	settings := room["settings"].(map[string]any)
	assert.Equal(t, models.PasswordRedactMask, settings["password"], "password must never leave the server")

	w = doJSON(t, router, http.MethodGet, "/api/rooms/ZZZZ99", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/rooms/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestJoinRoom(t *testing.T) {
	router, _, _ := newTestRouter(t)

	resp := createRoom(t, router, validCreateBody())
	code := resp["room"].(map[string]any)["code"].(string)

	w := doJSON(t, router, http.MethodPost, "/api/rooms/"+code+"/join", map[string]any{
		"user": map[string]any{"handle": "guest1", "nickname": "Guest", "position": "GK"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	joined := decodeBody(t, w)
	assert.Equal(t, false, joined["isHost"])
	assert.NotEmpty(t, joined["token"])
	room := joined["room"].(map[string]any)
	assert.Equal(t, float64(2), room["participantCount"])
}

func TestJoinRoomIdempotentByHandle(t *testing.T) {
	router, _, _ := newTestRouter(t)

	resp := createRoom(t, router, validCreateBody())
	code := resp["room"].(map[string]any)["code"].(string)

	body := map[string]any{
		"user": map[string]any{"handle": "guest1", "nickname": "Guest", "position": "GK"},
	}
	first := decodeBody(t, doJSON(t, router, http.MethodPost, "/api/rooms/"+code+"/join", body))

	w := doJSON(t, router, http.MethodPost, "/api/rooms/"+code+"/join", body)
	require.Equal(t, http.StatusOK, w.Code)
	second := decodeBody(t, w)

	assert.Equal(t, first["participantId"], second["participantId"])
	room := second["room"].(map[string]any)
	assert.Equal(t, float64(2), room["participantCount"], "rejoin must not duplicate the roster entry")
}

func TestJoinRoomPassword(t *testing.T) {
	router, _, _ := newTestRouter(t)

	body := validCreateBody()
	body["settings"] = map[string]any{"password": "hunter2"}
	resp := createRoom(t, router, body)
	code := resp["room"].(map[string]any)["code"].(string)

	w := doJSON(t, router, http.MethodPost, "/api/rooms/"+code+"/join", map[string]any{
		"user":     map[string]any{"handle": "guest1", "nickname": "Guest", "position": "GK"},
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/rooms/"+code+"/join", map[string]any{
		"user":     map[string]any{"handle": "guest1", "nickname": "Guest", "position": "GK"},
		"password": "hunter2",
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestJoinRoomFull(t *testing.T) {
	router, st, _ := newTestRouter(t)

	resp := createRoom(t, router, validCreateBody())
	code := resp["room"].(map[string]any)["code"].(string)

	ctx := context.Background()
	room, err := st.FindRoom(ctx, code)
	require.NoError(t, err)
	room.Settings.MaxParticipants = 1
	require.NoError(t, st.SaveRoom(ctx, room))

	w := doJSON(t, router, http.MethodPost, "/api/rooms/"+code+"/join", map[string]any{
		"user": map[string]any{"handle": "guest1", "nickname": "Guest", "position": "GK"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListRooms(t *testing.T) {
	router, st, _ := newTestRouter(t)

	first := createRoom(t, router, validCreateBody())
	second := createRoom(t, router, validCreateBody())
	secondCode := second["room"].(map[string]any)["code"].(string)

	// Abandoned rooms drop out of the listing.
	ctx := context.Background()
	abandonedCode := first["room"].(map[string]any)["code"].(string)
	room, err := st.FindRoom(ctx, abandonedCode)
	require.NoError(t, err)
	room.Status = models.StatusAbandoned
	require.NoError(t, st.SaveRoom(ctx, room))

	w := doJSON(t, router, http.MethodGet, "/api/rooms", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody(t, w)
	assert.Equal(t, float64(1), resp["count"])
	rooms := resp["rooms"].([]any)
	require.Len(t, rooms, 1)
	assert.Equal(t, secondCode, rooms[0].(map[string]any)["code"])
}

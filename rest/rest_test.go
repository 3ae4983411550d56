package rest

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Williamxu98/Blackjack-Server/game"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type nopHub struct{}

func (nopHub) Deliver(string, string) {}
func (nopHub) DeliverAll(string)      {}
func (nopHub) Disconnect(string)      {}

func get(t *testing.T, router http.Handler, path string, out interface{}) int {
	w := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodGet, path, nil)
	require.NoError(t, err)
	router.ServeHTTP(w, req)
	if out != nil {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
	}
	return w.Code
}

func TestStatusRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	table := game.NewTable(game.TableConfig{Code: "main", Rules: game.DefaultRules(), Hub: nopHub{}})
	alice := table.Join("a", "alice")
	bob := table.Join("b", "bob")
	table.Leave(bob, game.ReasonQuit)
	router := NewRouter(table, nil)

	var ready map[string]interface{}
	assert.Equal(t, http.StatusOK, get(t, router, "/ready", &ready))
	assert.Equal(t, "main", ready["table"])

	var snapshot game.Snapshot
	assert.Equal(t, http.StatusOK, get(t, router, "/table", &snapshot))
	assert.Equal(t, game.RoundState__IDLE, snapshot.Phase)
	require.Len(t, snapshot.Players, 1)
	assert.Equal(t, "alice", snapshot.Players[0].Name)

	var status playerStatus
	assert.Equal(t, http.StatusOK, get(t, router, "/players/a", &status))
	assert.True(t, status.Present)
	assert.Equal(t, alice.SeatNo(), status.SeatNo)
	assert.Equal(t, 1000, status.Balance)

	status = playerStatus{}
	assert.Equal(t, http.StatusOK, get(t, router, "/players/b", &status))
	assert.False(t, status.Present)
	assert.Equal(t, "quit", status.Reason)

	assert.Equal(t, http.StatusNotFound, get(t, router, "/players/zzz", nil))
	assert.Equal(t, http.StatusOK, get(t, router, "/metrics", nil))
}

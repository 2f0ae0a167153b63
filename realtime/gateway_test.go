package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmrendraTheCoder/go-backend-sub000/auth"
)

var testSecret = []byte("gateway-test-secret")

func mintToken(t *testing.T, role auth.Role, machineID string) string {
	t.Helper()

	claims := auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-" + string(role),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Name:      "Test " + string(role),
		Role:      role,
		MachineID: machineID,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)
	return token
}

func newTestGateway(t *testing.T) (*Gateway, *httptest.Server) {
	t.Helper()

	verifier, err := auth.NewVerifier(testSecret)
	require.NoError(t, err)

	gw, err := NewGateway(GatewayConfig{
		Verifier:     verifier,
		WriteTimeout: time.Second,
		IdleTimeout:  5 * time.Second,
		PingInterval: time.Minute,
	})
	require.NoError(t, err)
	require.NoError(t, gw.Start(context.Background()))

	srv := httptest.NewServer(gw)
	t.Cleanup(func() {
		srv.Close()
		_ = gw.Stop(2 * time.Second)
	})
	return gw, srv
}

func dial(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var frame map[string]any
	require.NoError(t, json.Unmarshal(data, &frame))
	return frame
}

func sendFrame(t *testing.T, conn *websocket.Conn, frame ControlFrame) {
	t.Helper()
	data, err := frame.Encode()
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

func TestGatewayRejectsMissingToken(t *testing.T) {
	_, srv := newTestGateway(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.Nil(t, conn)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGatewayRejectsForgedToken(t *testing.T) {
	gw, srv := newTestGateway(t)

	claims := auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "intruder",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: auth.RoleAdministrator,
	}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("wrong-secret"))
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?token=" + forged
	conn, resp, dialErr := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, dialErr)
	require.Nil(t, conn)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// No session state survives a failed handshake
	assert.Equal(t, 0, gw.Registry().Count())
}

func TestGatewayTokenViaQueryParam(t *testing.T) {
	_, srv := newTestGateway(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?token=" + mintToken(t, auth.RoleManager, "")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	frame := readFrame(t, conn)
	assert.Equal(t, ControlConnectionConfirmed, frame["type"])
}

func TestGatewayConnectionConfirmed(t *testing.T) {
	gw, srv := newTestGateway(t)

	conn := dial(t, srv, mintToken(t, auth.RoleMachineOperator, "1"))

	frame := readFrame(t, conn)
	assert.Equal(t, ControlConnectionConfirmed, frame["type"])
	assert.Equal(t, "user-machine-operator", frame["userId"])
	assert.Equal(t, "machine-operator", frame["role"])
	assert.ElementsMatch(t, []any{"all-users", "machine:1"}, frame["availableGroups"])

	assert.Equal(t, 1, gw.Registry().Count())
}

func TestGatewayJoinRoomGating(t *testing.T) {
	_, srv := newTestGateway(t)

	conn := dial(t, srv, mintToken(t, auth.RoleMachineOperator, "1"))
	readFrame(t, conn) // connection-confirmed

	// Operators may not join the administrators channel
	sendFrame(t, conn, ControlFrame{Type: ControlJoinRoom, Room: "administrators"})
	frame := readFrame(t, conn)
	assert.Equal(t, ControlRoomJoinDenied, frame["type"])
	assert.Equal(t, "administrators", frame["room"])
	assert.NotEmpty(t, frame["reason"])

	// Unknown group names are denied, not dropped
	sendFrame(t, conn, ControlFrame{Type: ControlJoinRoom, Room: "break-room"})
	frame = readFrame(t, conn)
	assert.Equal(t, ControlRoomJoinDenied, frame["type"])

	// The operator's own machine group is allowed
	sendFrame(t, conn, ControlFrame{Type: ControlJoinRoom, Room: "machine:1"})
	frame = readFrame(t, conn)
	assert.Equal(t, ControlRoomJoined, frame["type"])
	assert.Equal(t, "machine:1", frame["room"])
}

func TestGatewayJobSubscription(t *testing.T) {
	gw, srv := newTestGateway(t)

	conn := dial(t, srv, mintToken(t, auth.RoleMachineOperator, "1"))
	readFrame(t, conn)

	sendFrame(t, conn, ControlFrame{Type: ControlSubscribeJob, JobID: "job-77"})
	frame := readFrame(t, conn)
	assert.Equal(t, ControlRoomJoined, frame["type"])
	assert.Equal(t, "job:job-77", frame["room"])

	// Published envelopes now reach the subscriber
	payload := []byte(`{"type":"job-progress-updated","payload":{"jobId":"job-77"}}`)
	require.NoError(t, gw.Publish(JobGroup("job-77"), payload))

	frame = readFrame(t, conn)
	assert.Equal(t, "job-progress-updated", frame["type"])

	sendFrame(t, conn, ControlFrame{Type: ControlUnsubscribeJob, JobID: "job-77"})
	frame = readFrame(t, conn)
	assert.Equal(t, ControlRoomLeft, frame["type"])

	// After unsubscribe the group is empty and publish is a no-op
	require.NoError(t, gw.Publish(JobGroup("job-77"), payload))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(300*time.Millisecond)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err, "no frame should arrive after unsubscribing")
}

func TestGatewayPublishGroupIsolation(t *testing.T) {
	gw, srv := newTestGateway(t)

	op1 := dial(t, srv, mintToken(t, auth.RoleMachineOperator, "1"))
	readFrame(t, op1)

	op2 := dial(t, srv, mintToken(t, auth.RoleMachineOperator, "2"))
	readFrame(t, op2)

	payload := []byte(`{"type":"machine-status-updated","payload":{"machineId":"1"}}`)
	require.NoError(t, gw.Publish(MachineGroup("1"), payload))

	frame := readFrame(t, op1)
	assert.Equal(t, "machine-status-updated", frame["type"])

	// The machine 2 operator must not see machine 1 traffic
	require.NoError(t, op2.SetReadDeadline(time.Now().Add(300*time.Millisecond)))
	_, _, err := op2.ReadMessage()
	assert.Error(t, err, "machine 2 operator must not receive machine 1 events")
}

func TestGatewayPublishEmptyGroup(t *testing.T) {
	gw, _ := newTestGateway(t)

	// No members, no error
	require.NoError(t, gw.Publish(GroupStockManagement, []byte(`{"type":"stock-alert"}`)))
}

func TestGatewayPingPong(t *testing.T) {
	_, srv := newTestGateway(t)

	conn := dial(t, srv, mintToken(t, auth.RoleJobCoordinator, ""))
	readFrame(t, conn)

	sendFrame(t, conn, ControlFrame{Type: ControlPing})
	frame := readFrame(t, conn)
	assert.Equal(t, ControlPong, frame["type"])
}

func TestGatewayDisconnectCallback(t *testing.T) {
	gw, srv := newTestGateway(t)

	disconnected := make(chan string, 1)
	gw.OnDisconnect = func(s *Session, reason string) {
		disconnected <- s.UserID
	}

	conn := dial(t, srv, mintToken(t, auth.RoleManager, ""))
	readFrame(t, conn)
	require.Equal(t, 1, gw.Registry().Count())

	conn.Close()

	select {
	case userID := <-disconnected:
		assert.Equal(t, "user-manager", userID)
	case <-time.After(2 * time.Second):
		t.Fatal("disconnect callback not invoked")
	}
	assert.Eventually(t, func() bool { return gw.Registry().Count() == 0 },
		time.Second, 10*time.Millisecond)
}

func TestGatewayPublishNotRunning(t *testing.T) {
	verifier, err := auth.NewVerifier(testSecret)
	require.NoError(t, err)
	gw, err := NewGateway(DefaultGatewayConfig(verifier))
	require.NoError(t, err)

	err = gw.Publish(GroupAllUsers, []byte(`{}`))
	assert.Error(t, err)
}

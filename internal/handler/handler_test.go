package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dipcoater-service/internal/config"
	"dipcoater-service/internal/discovery"
	"dipcoater-service/internal/model"
	"dipcoater-service/internal/protocol"
	"dipcoater-service/internal/repository"
	"dipcoater-service/internal/service"
	"dipcoater-service/internal/utils"
)

type stubLink struct {
	mu        sync.Mutex
	connected bool
	port      string
	events    chan model.LinkEvent
	closeOnce sync.Once
}

func (s *stubLink) Connect(port string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.connected {
		return protocol.ErrAlreadyConnected
	}
	s.connected, s.port = true, port
	return nil
}

func (s *stubLink) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	return nil
}

func (s *stubLink) SendSettings(model.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return protocol.ErrNotConnected
	}
	return nil
}

func (s *stubLink) Status() protocol.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := protocol.StateIdle
	if s.connected {
		state = protocol.StateConnected
	}
	return protocol.Status{State: state, Connected: s.connected, Port: s.port}
}

func (s *stubLink) Events() <-chan model.LinkEvent { return s.events }
func (s *stubLink) Wait(context.Context) error      { return nil }

func (s *stubLink) Close() error {
	s.closeOnce.Do(func() { close(s.events) })
	return nil
}

type stubScanner struct{}

func (stubScanner) Scan(context.Context) ([]*discovery.PortInfo, error) {
	return []*discovery.PortInfo{{Name: "COM3", Description: "Arduino Uno", IsUSB: true, Source: "serial"}}, nil
}
func (stubScanner) GetScannerType() string { return "serial" }
func (stubScanner) IsAvailable() bool      { return true }

type testEnv struct {
	router   *gin.Engine
	link     *stubLink
	bus      *service.EventBus
	programs *service.ProgramService
	ws       *WebSocketHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	cfg := &config.Config{
		App:     config.AppConfig{Name: "dipcoater-service", Version: "test", Environment: "test"},
		Storage: config.StorageConfig{Backend: config.StorageFile, ProgramsDir: t.TempDir()},
		Device: config.DeviceConfig{
			StepsPerMM:          100,
			DriverStepsDivision: 8,
			MaxSpeed:            7.0,
			InvertDirection:     1,
			InvertEnable:        1,
			LogLevel:            "NO_LOG",
		},
	}

	repo, err := repository.NewFileProgramRepository(cfg.Storage.ProgramsDir, logger)
	require.NoError(t, err)

	bus := service.NewEventBus(logger)
	scanners := discovery.NewScannerManager(logger)
	scanners.RegisterScanner(stubScanner{})

	link := &stubLink{events: make(chan model.LinkEvent, 16)}
	deviceService := service.NewDeviceService(link, scanners, bus, cfg, logger)
	programService := service.NewProgramService(repo, bus, logger)
	ws := NewWebSocketHandler(deviceService, bus, nil, logger)
	go bus.Start()

	router := gin.New()
	NewHealthHandler(nil, deviceService, cfg, logger).RegisterRoutes(&router.RouterGroup)
	api := router.Group("/api/v1")
	NewProgramHandler(programService, logger).RegisterRoutes(api)
	NewDeviceHandler(deviceService, logger).RegisterRoutes(api)
	NewDiscoveryHandler(deviceService, logger).RegisterRoutes(api)
	ws.RegisterRoutes(router.Group("/ws"))

	t.Cleanup(func() {
		_ = deviceService.Close()
		bus.Stop()
		ws.Close()
	})

	return &testEnv{router: router, link: link, bus: bus, programs: programService, ws: ws}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) utils.APIResponse {
	t.Helper()
	var response utils.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response), rec.Body.String())
	return response
}

func dataMap(t *testing.T, response utils.APIResponse) map[string]interface{} {
	t.Helper()
	data, ok := response.Data.(map[string]interface{})
	require.True(t, ok, "data is %T", response.Data)
	return data
}

func TestProgramEditingEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/program", gin.H{"version": "1.2"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "1.2", dataMap(t, decode(t, rec))["version"])

	rec = env.do(t, http.MethodPost, "/api/v1/program/commands", gin.H{"command": "DOWN", "args": []float64{10, 2}})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := dataMap(t, decode(t, rec))["id"].(string)

	rec = env.do(t, http.MethodPost, "/api/v1/program/commands", gin.H{"command": "IDLE_US", "args": []float64{500000}})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/program/estimate", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := dataMap(t, decode(t, rec))
	assert.Equal(t, float64(2), summary["commands_len"])
	assert.InDelta(t, 5.5, summary["estimated_seconds"], 1e-9)

	rec = env.do(t, http.MethodDelete, "/api/v1/program/commands/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 0.5, dataMap(t, decode(t, rec))["estimated_seconds"], 1e-9)

	rec = env.do(t, http.MethodDelete, "/api/v1/program/commands/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/v1/program/commands/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/v1/program/version", gin.H{"version": "2.0"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/program", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	program := dataMap(t, decode(t, rec))
	assert.Equal(t, "2.0", program["version"])
	assert.Len(t, program["commands"], 1)
}

func TestAddCommandRejectsInvalidInput(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/program/commands", gin.H{"command": "JUMP", "args": []float64{1}})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	response := decode(t, rec)
	assert.False(t, response.Success)
	assert.Equal(t, "VALIDATION_ERROR", response.Error.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/program/commands", gin.H{"command": "UP", "args": []float64{1}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/program/commands", `{"args": [1, 2]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProgramStorageEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/programs", gin.H{"name": "coat"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	env.do(t, http.MethodPost, "/api/v1/program", gin.H{"version": "1.0"})
	env.do(t, http.MethodPost, "/api/v1/program/commands", gin.H{"command": "UP", "args": []float64{5, 1}})

	rec = env.do(t, http.MethodPost, "/api/v1/programs", gin.H{"name": "coat"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "coat", dataMap(t, decode(t, rec))["name"])

	rec = env.do(t, http.MethodPost, "/api/v1/programs", gin.H{"name": "coat"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "coat(0)", dataMap(t, decode(t, rec))["name"])

	rec = env.do(t, http.MethodGet, "/api/v1/programs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec).Data, 2)

	rec = env.do(t, http.MethodGet, "/api/v1/programs/coat", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"program_body"`)

	document := `{"version": "9", "program_body": {"commands_len": 2, "commands_list": [
		{"command": "DOWN", "args": [3, 1]},
		{"command": "UP", "args": [-3, 1]}
	]}}`
	rec = env.do(t, http.MethodPut, "/api/v1/programs/imported", document)
	require.Equal(t, http.StatusOK, rec.Code)
	imported := dataMap(t, decode(t, rec))
	assert.Equal(t, "imported", imported["name"])
	assert.Equal(t, float64(1), imported["skipped_count"])

	rec = env.do(t, http.MethodPut, "/api/v1/programs/broken", `{"version": 1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "DECODE_ERROR", decode(t, rec).Error.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/programs/imported/load", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	loaded := decode(t, rec)
	assert.Equal(t, "Program loaded with skipped commands", loaded.Message)
	assert.Equal(t, "9", env.programs.Current().Version)

	rec = env.do(t, http.MethodDelete, "/api/v1/programs/imported", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/programs/imported/load", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "9", env.programs.Current().Version)
}

func TestDeviceEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/device/ports", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec).Data, 1)

	rec = env.do(t, http.MethodPost, "/api/v1/device/settings", nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "NOT_CONNECTED", decode(t, rec).Error.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/device/connect", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/device/connect", gin.H{"port": "COM3"})
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/device/connect", gin.H{"port": "COM3"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "ALREADY_CONNECTED", decode(t, rec).Error.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/device/settings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(100), dataMap(t, decode(t, rec))["steps_per_mm"])

	rec = env.do(t, http.MethodPost, "/api/v1/device/settings", gin.H{"max_speed": 0.5, "log_level": "INFO"})
	require.Equal(t, http.StatusOK, rec.Code)
	result := dataMap(t, decode(t, rec))
	assert.Equal(t, "640000009001000008010101", result["frame"])

	rec = env.do(t, http.MethodPost, "/api/v1/device/settings", gin.H{"invert_direction": 3})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/device/disconnect", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, dataMap(t, decode(t, rec))["connected"])
}

func TestDiscoveryEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/discovery/scanners", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []interface{}{"serial"}, decode(t, rec).Data)

	rec = env.do(t, http.MethodGet, "/api/v1/discovery/scan?type=serial", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), dataMap(t, decode(t, rec))["ports_found"])

	rec = env.do(t, http.MethodGet, "/api/v1/discovery/scan?type=bluetooth", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var health HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Contains(t, health.Checks, "storage")
	assert.Equal(t, string(protocol.StateIdle), health.Checks["device_link"].Message)

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/ready", nil).Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/live", nil).Code)
}

func readMessage(t *testing.T, conn *websocket.Conn) WebSocketMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var message WebSocketMessage
	require.NoError(t, conn.ReadJSON(&message))
	return message
}

func TestWebSocketStreamsEvents(t *testing.T) {
	env := newTestEnv(t)
	server := httptest.NewServer(env.router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	status := readMessage(t, conn)
	assert.Equal(t, "status", status.Type)

	require.NoError(t, conn.WriteJSON(WebSocketMessage{Type: "ping", RequestID: "r1"}))
	pong := readMessage(t, conn)
	assert.Equal(t, "pong", pong.Type)
	assert.Equal(t, "r1", pong.RequestID)

	require.NoError(t, conn.WriteJSON(WebSocketMessage{Type: "subscribe", Data: map[string]interface{}{"topic": "link"}}))
	assert.Equal(t, "subscribed", readMessage(t, conn).Type)

	// Program events are filtered out once the client subscribes to link only
	env.programs.New("ignored")
	env.link.events <- model.LinkEvent{Seq: 7, Type: model.EventInfo, Message: "Device ready", Timestamp: time.Now()}

	message := readMessage(t, conn)
	assert.Equal(t, service.EventTypeLink, message.Type)
	data, ok := message.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(7), data["seq"])
	assert.Equal(t, "Device ready", data["message"])

	require.NoError(t, conn.WriteJSON(WebSocketMessage{Type: "subscribe", Data: map[string]interface{}{"topic": "motors"}}))
	assert.Equal(t, "error", readMessage(t, conn).Type)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"http://localhost:3000"})

	req := httptest.NewRequest(http.MethodGet, "/ws/events", nil)
	assert.True(t, check(req))

	req.Header.Set("Origin", "http://localhost:3000")
	assert.True(t, check(req))

	req.Header.Set("Origin", "http://evil.example")
	assert.False(t, check(req))

	assert.True(t, originChecker([]string{"*"})(req))
}

func TestConnectionManager(t *testing.T) {
	cm := NewConnectionManager()
	client := &Client{ID: uuid.New().String(), Send: make(chan []byte, 1)}
	require.True(t, cm.Register(client))

	assert.Zero(t, cm.Broadcast(TopicLink, []byte("a")))
	assert.Equal(t, 1, cm.Broadcast(TopicLink, []byte("b")))
	assert.Equal(t, []byte("a"), <-client.Send)

	client.Subscribe(TopicProgram)
	assert.Zero(t, cm.Broadcast(TopicLink, []byte("c")))
	assert.Len(t, client.Send, 0)
	assert.Equal(t, 1, cm.GetStats().ByTopic[TopicProgram])

	cm.Unregister(client)
	_, open := <-client.Send
	assert.False(t, open)
	assert.False(t, cm.SendTo(client, []byte("d")))

	cm.Close()
	assert.False(t, cm.Register(&Client{ID: "late", Send: make(chan []byte)}))
}

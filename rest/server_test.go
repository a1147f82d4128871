package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/mohitkumar/autopilot/action"
	"github.com/mohitkumar/autopilot/model"
	"github.com/mohitkumar/autopilot/persistence/memory"
	"github.com/mohitkumar/autopilot/service"
	"github.com/mohitkumar/autopilot/util"
	"github.com/stretchr/testify/require"
)

var learnedAt = time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)

type stubActuator struct {
	mu       sync.Mutex
	notFound bool
}

func (a *stubActuator) Locate(ctx context.Context, selector string) (action.Element, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.notFound {
		return action.Element{}, action.ErrElementNotFound
	}
	return action.Element{Selector: selector}, nil
}

func (a *stubActuator) Perform(ctx context.Context, act action.Action, el action.Element) (map[string]any, error) {
	return map[string]any{"messageType": string(act.MessageType())}, nil
}

type testServer struct {
	handler  http.Handler
	actuator *stubActuator
}

func newTestServer(t *testing.T) *testServer {
	clock := util.NewFixedClock(learnedAt)
	actuator := &stubActuator{}
	patterns := service.NewPatternService(memory.NewPatternStore(), actuator, nil, clock)
	wg := &sync.WaitGroup{}
	workflows := service.NewWorkflowService(memory.NewWorkflowStore(), patterns, nil, clock, 2, wg)
	workflows.Start()
	t.Cleanup(func() {
		workflows.Stop()
		wg.Wait()
	})
	s, err := NewServer(0, patterns, workflows)
	require.NoError(t, err)
	return &testServer{handler: s.Handler, actuator: actuator}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func (ts *testServer) learn(t *testing.T, req service.LearnRequest) model.AutomationPatternData {
	rec := ts.do(t, http.MethodPost, "/pattern", req)
	require.Equal(t, http.StatusCreated, rec.Code)
	return decodeBody[model.AutomationPatternData](t, rec)
}

var fillRequest = service.LearnRequest{
	MessageType: model.FILL_TEXT,
	Payload:     map[string]any{"element": "#prompt", "text": "{$.input.prompt}"},
	Selector:    "#prompt",
	Url:         "https://chat.example.com/c/1",
}

func chatRequest(text string) model.AutomationRequest {
	return model.AutomationRequest{
		MessageType: model.FILL_TEXT,
		Payload:     map[string]any{"element": "#prompt", "text": text},
		Context: model.ExecutionContext{
			Url:       "https://chat.example.com/c/1",
			Hostname:  "chat.example.com",
			Pathname:  "/c/1",
			Timestamp: learnedAt,
		},
	}
}

func TestPatternLifecycle(t *testing.T) {
	ts := newTestServer(t)
	p := ts.learn(t, fillRequest)
	require.NotEmpty(t, p.Id)
	require.Equal(t, 1.0, p.Confidence)

	rec := ts.do(t, http.MethodGet, "/pattern/"+p.Id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, p.Id, decodeBody[model.AutomationPatternData](t, rec).Id)

	rec = ts.do(t, http.MethodGet, "/pattern/"+p.Id+"/reliability", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	report := decodeBody[service.ReliabilityReport](t, rec)
	require.Equal(t, model.RELIABILITY_LOW, report.Level)

	rec = ts.do(t, http.MethodDelete, "/pattern/"+p.Id, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/pattern/"+p.Id, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLearnBadRequest(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodPost, "/pattern", service.LearnRequest{MessageType: "Scroll", Selector: "#x", Url: "https://chat.example.com"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/pattern", bytes.NewBufferString("{"))
	rec = httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMatchAndExecute(t *testing.T) {
	ts := newTestServer(t)
	p := ts.learn(t, fillRequest)

	rec := ts.do(t, http.MethodPost, "/pattern/match", chatRequest("{$.input.prompt}"))
	require.Equal(t, http.StatusOK, rec.Code)
	matches := decodeBody[[]matchResponse](t, rec)
	require.Len(t, matches, 1)
	require.Equal(t, p.Id, matches[0].PatternId)

	rec = ts.do(t, http.MethodPost, "/pattern/execute", chatRequest("a red fox"))
	require.Equal(t, http.StatusOK, rec.Code)
	out := decodeBody[service.PatternExecution](t, rec)
	require.Equal(t, p.Id, out.PatternId)
	require.True(t, out.Result.Success)

	ts.actuator.mu.Lock()
	ts.actuator.notFound = true
	ts.actuator.mu.Unlock()
	rec = ts.do(t, http.MethodPost, "/pattern/execute", chatRequest("a red fox"))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeBody[map[string]string](t, rec)
	require.Equal(t, "ELEMENT_NOT_FOUND", body["kind"])
	require.Equal(t, p.Id, body["patternId"])

	other := chatRequest("a red fox")
	other.Context.Url = "https://other.example.com/c/1"
	other.Context.Hostname = "other.example.com"
	rec = ts.do(t, http.MethodPost, "/pattern/execute", other)
	require.Equal(t, http.StatusNotFound, rec.Code)

	hostless := chatRequest("a red fox")
	hostless.Context = model.ExecutionContext{Pathname: "/c/1"}
	rec = ts.do(t, http.MethodPost, "/pattern/match", hostless)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWorkflowEndpoints(t *testing.T) {
	ts := newTestServer(t)
	p := ts.learn(t, fillRequest)

	cyclic := model.WorkflowDefinition{
		Name: "loop",
		Phases: []model.WorkflowPhase{
			{Id: "a", Order: 1, PatternIds: []string{p.Id}, Dependencies: []string{"b"}},
			{Id: "b", Order: 2, PatternIds: []string{p.Id}, Dependencies: []string{"a"}},
		},
	}
	rec := ts.do(t, http.MethodPost, "/workflow", cyclic)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	def := model.WorkflowDefinition{
		Name:   "prompt",
		Phases: []model.WorkflowPhase{{Id: "fill", Order: 1, PatternIds: []string{p.Id}}},
	}
	rec = ts.do(t, http.MethodPost, "/workflow", def)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/workflow/prompt", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "prompt", decodeBody[model.WorkflowDefinition](t, rec).Name)

	runReq := model.WorkflowRunRequest{
		Name:    "prompt",
		Context: chatRequest("").Context,
		Input:   map[string]any{"prompt": "a red fox"},
	}
	rec = ts.do(t, http.MethodPost, "/workflow/execute", runReq)
	require.Equal(t, http.StatusOK, rec.Code)
	run := decodeBody[service.WorkflowRun](t, rec)
	require.Equal(t, service.RUN_STATE_COMPLETED, run.State)
	require.Equal(t, []string{"fill"}, run.Result.CompletedPhases)

	rec = ts.do(t, http.MethodPost, "/workflow/execute?async=true", runReq)
	require.Equal(t, http.StatusAccepted, rec.Code)
	runId := decodeBody[map[string]string](t, rec)["runId"]
	require.NotEmpty(t, runId)
	require.Eventually(t, func() bool {
		rec := ts.do(t, http.MethodGet, "/workflow/run/"+runId, nil)
		return rec.Code == http.StatusOK && decodeBody[service.WorkflowRun](t, rec).State == service.RUN_STATE_COMPLETED
	}, 2*time.Second, 10*time.Millisecond)

	rec = ts.do(t, http.MethodGet, "/workflow/run/unknown", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodPost, "/workflow/execute", model.WorkflowRunRequest{Name: "missing"})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

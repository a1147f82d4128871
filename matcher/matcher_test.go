package matcher

import (
	"testing"
	"time"

	"github.com/mohitkumar/autopilot/model"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)

type stubPattern struct {
	id          string
	messageType model.MessageType
	payload     map[string]any
	context     model.ExecutionContext
	confidence  float64
	successRate float64
}

func (s stubPattern) Id() string                      { return s.id }
func (s stubPattern) MessageType() model.MessageType  { return s.messageType }
func (s stubPattern) Payload() map[string]any         { return s.payload }
func (s stubPattern) Context() model.ExecutionContext { return s.context }
func (s stubPattern) Confidence() float64             { return s.confidence }
func (s stubPattern) SuccessRate() float64            { return s.successRate }

func chatContext(host, path, fingerprint string) model.ExecutionContext {
	return model.ExecutionContext{
		Url:             "https://" + host + path,
		Hostname:        host,
		Pathname:        path,
		Timestamp:       now,
		PageFingerprint: fingerprint,
	}
}

func fillPattern() stubPattern {
	return stubPattern{
		id:          "p1",
		messageType: model.FILL_TEXT,
		payload:     map[string]any{"element": "#prompt", "text": "hello"},
		context:     chatContext("chat.example.com", "/c/123", "abc"),
		confidence:  1.0,
		successRate: 1.0,
	}
}

func TestMessageTypeIsHardGate(t *testing.T) {
	p := fillPattern()
	req := model.AutomationRequest{
		MessageType: model.CLICK_ELEMENT,
		Payload:     p.payload,
		Context:     p.context,
	}
	c := EvaluateMatch(p, req, now)
	require.False(t, c.MessageTypeMatch)
	require.Equal(t, 0.0, c.OverallScore)
	require.Equal(t, 1.0, c.PayloadSimilarity)
	require.False(t, IsGoodMatch(c))
}

func TestIdenticalRequestScoresFully(t *testing.T) {
	p := fillPattern()
	req := model.AutomationRequest{MessageType: p.messageType, Payload: p.payload, Context: p.context}
	c := EvaluateMatch(p, req, now)
	require.True(t, c.MessageTypeMatch)
	require.Equal(t, 1.0, c.PayloadSimilarity)
	require.Equal(t, 1.0, c.ContextCompatibility)
	require.InDelta(t, 1.0, c.OverallScore, 1e-9)
	require.True(t, IsGoodMatch(c))
}

func TestOverallScoreWeights(t *testing.T) {
	p := fillPattern()
	p.confidence = 0.5
	req := model.AutomationRequest{MessageType: p.messageType, Payload: p.payload, Context: p.context}
	c := EvaluateMatch(p, req, now)
	require.InDelta(t, 0.4+0.3+0.15, c.OverallScore, 1e-9)

	p.confidence = 2.0
	c = EvaluateMatch(p, req, now)
	require.Equal(t, 1.0, c.OverallScore)
}

func TestPayloadSimilarity(t *testing.T) {
	for scenario, tc := range map[string]struct {
		stored, requested map[string]any
		want              float64
	}{
		"both empty":       {nil, map[string]any{}, 1.0},
		"element mismatch": {map[string]any{"element": "#a"}, map[string]any{"element": "#b"}, 0.2},
		"element missing":  {map[string]any{"element": "#a"}, map[string]any{}, 0.2},
		"element and text": {map[string]any{"element": "#a", "text": "hello"}, map[string]any{"element": "#b", "text": "hallo"}, 0.5},
		"numbers":          {map[string]any{"count": 3}, map[string]any{"count": 3.0}, 1.0},
		"bool mismatch":    {map[string]any{"flag": true}, map[string]any{"flag": false}, 0},
		"one sided string": {map[string]any{"text": "a"}, map[string]any{"other": "a"}, 0},
		"nested equal":     {map[string]any{"meta": map[string]any{"a": "b"}}, map[string]any{"meta": map[string]any{"a": "b"}}, 1.0},
	} {
		t.Run(scenario, func(t *testing.T) {
			require.InDelta(t, tc.want, PayloadSimilarity(tc.stored, tc.requested), 1e-9)
		})
	}
}

func TestContextCompatibility(t *testing.T) {
	base := chatContext("chat.example.com", "/c/123", "abc")

	require.Equal(t, 1.0, ContextCompatibility(base, base))

	otherHost := chatContext("other.com", "/c/123", "abc")
	require.InDelta(t, 3.0/6.0, ContextCompatibility(base, otherHost), 1e-9)

	otherPath := chatContext("chat.example.com", "/c/456", "abc")
	require.InDelta(t, (3+2.0/3.0+1)/6, ContextCompatibility(base, otherPath), 1e-9)

	noFingerprint := chatContext("chat.example.com", "/c/123", "")
	require.Equal(t, 1.0, ContextCompatibility(base, noFingerprint))

	drifted := chatContext("chat.example.com", "/c/123", "def")
	require.InDelta(t, 5.0/6.0, ContextCompatibility(base, drifted), 1e-9)
}

func TestConfidenceThreshold(t *testing.T) {
	require.InDelta(t, 0.8, ConfidenceThreshold(1.0, 0), 1e-9)
	require.InDelta(t, 0.6, ConfidenceThreshold(0, 0), 1e-9)
	require.InDelta(t, 0.5, ConfidenceThreshold(0, 15), 1e-9)
	require.InDelta(t, 0.4, ConfidenceThreshold(0, 90), 1e-9)
	require.InDelta(t, 0.6, ConfidenceThreshold(0, -3), 1e-9)

	p := fillPattern()
	p.successRate = 0.5
	p.context.Timestamp = now.Add(-15 * 24 * time.Hour)
	req := model.AutomationRequest{MessageType: p.messageType, Payload: p.payload, Context: p.context}
	require.InDelta(t, 0.6, EvaluateMatch(p, req, now).ConfidenceThreshold, 1e-9)
}

func TestIsGoodMatchBoundaries(t *testing.T) {
	for scenario, tc := range map[string]struct {
		criteria model.PatternMatchingCriteria
		want     bool
	}{
		"exact bounds":        {model.PatternMatchingCriteria{MessageTypeMatch: true, OverallScore: 0.7, ContextCompatibility: 0.6}, true},
		"score below":         {model.PatternMatchingCriteria{MessageTypeMatch: true, OverallScore: 0.6999, ContextCompatibility: 0.6}, false},
		"context below":       {model.PatternMatchingCriteria{MessageTypeMatch: true, OverallScore: 0.7, ContextCompatibility: 0.5999}, false},
		"type mismatch":       {model.PatternMatchingCriteria{MessageTypeMatch: false, OverallScore: 1, ContextCompatibility: 1}, false},
		"comfortably above":   {model.PatternMatchingCriteria{MessageTypeMatch: true, OverallScore: 0.95, ContextCompatibility: 0.9}, true},
	} {
		t.Run(scenario, func(t *testing.T) {
			require.Equal(t, tc.want, IsGoodMatch(tc.criteria))
		})
	}
}

func TestRank(t *testing.T) {
	best := fillPattern()
	best.id = "best"

	weaker := fillPattern()
	weaker.id = "weaker"
	weaker.confidence = 0.6

	tied := fillPattern()
	tied.id = "a-tied"

	otherSite := fillPattern()
	otherSite.id = "other-site"
	otherSite.context = chatContext("other.com", "/x", "")

	click := fillPattern()
	click.id = "click"
	click.messageType = model.CLICK_ELEMENT

	req := model.AutomationRequest{MessageType: model.FILL_TEXT, Payload: best.payload, Context: best.context}
	ranked := Rank([]stubPattern{weaker, otherSite, best, click, tied}, req, now)

	var ids []string
	for _, c := range ranked {
		ids = append(ids, c.Pattern.Id())
	}
	require.Equal(t, []string{"a-tied", "best", "weaker"}, ids)
}

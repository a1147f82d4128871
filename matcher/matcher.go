// Package matcher scores how well a learned pattern fits a new automation
// request. Everything here is a total function of its inputs.
package matcher

import (
	"reflect"
	"sort"
	"time"

	"github.com/mohitkumar/autopilot/model"
	"github.com/mohitkumar/autopilot/util"
)

const GoodMatchScore = 0.7
const GoodMatchContext = 0.6

const elementKey = "element"

const (
	payloadWeight    = 0.4
	contextWeight    = 0.3
	confidenceWeight = 0.3

	hostWeight        = 3.0
	pathWeight        = 2.0
	fingerprintWeight = 1.0
)

// Pattern is the view of a stored pattern the matcher needs.
type Pattern interface {
	Id() string
	MessageType() model.MessageType
	Payload() map[string]any
	Context() model.ExecutionContext
	Confidence() float64
	SuccessRate() float64
}

func EvaluateMatch(p Pattern, req model.AutomationRequest, now time.Time) model.PatternMatchingCriteria {
	criteria := model.PatternMatchingCriteria{
		MessageTypeMatch:     p.MessageType() == req.MessageType,
		PayloadSimilarity:    PayloadSimilarity(p.Payload(), req.Payload),
		ContextCompatibility: ContextCompatibility(p.Context(), req.Context),
		ConfidenceThreshold:  ConfidenceThreshold(p.SuccessRate(), ageInDays(p.Context(), now)),
	}
	if !criteria.MessageTypeMatch {
		return criteria
	}
	score := criteria.PayloadSimilarity*payloadWeight +
		criteria.ContextCompatibility*contextWeight +
		p.Confidence()*confidenceWeight
	criteria.OverallScore = util.Clamp(score, 0, 1)
	return criteria
}

// IsGoodMatch applies the fixed acceptance policy. Both bounds are inclusive.
func IsGoodMatch(c model.PatternMatchingCriteria) bool {
	return c.MessageTypeMatch && c.OverallScore >= GoodMatchScore && c.ContextCompatibility >= GoodMatchContext
}

func PayloadSimilarity(stored, requested map[string]any) float64 {
	keys := make(map[string]struct{}, len(stored)+len(requested))
	for k := range stored {
		keys[k] = struct{}{}
	}
	for k := range requested {
		keys[k] = struct{}{}
	}
	if len(keys) == 0 {
		return 1.0
	}
	total := 0.0
	for k := range keys {
		a, inA := stored[k]
		b, inB := requested[k]
		total += valueSimilarity(k, a, inA, b, inB)
	}
	return total / float64(len(keys))
}

func valueSimilarity(key string, a any, inA bool, b any, inB bool) float64 {
	if key == elementKey {
		if inA && inB && valuesEqual(a, b) {
			return 1.0
		}
		return 0.2
	}
	if sa, ok := a.(string); ok && inA {
		if sb, ok := b.(string); ok && inB {
			return util.StringSimilarity(sa, sb)
		}
	}
	if inA && inB && valuesEqual(a, b) {
		return 1.0
	}
	return 0
}

func valuesEqual(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func ContextCompatibility(stored, current model.ExecutionContext) float64 {
	score, weight := 0.0, hostWeight+pathWeight
	if stored.Hostname == current.Hostname {
		score += hostWeight
	}
	score += pathWeight * util.PathOverlap(stored.Pathname, current.Pathname)
	if stored.HasFingerprint() && current.HasFingerprint() {
		weight += fingerprintWeight
		if stored.PageFingerprint == current.PageFingerprint {
			score += fingerprintWeight
		}
	}
	return score / weight
}

// ConfidenceThreshold is a per-pattern floor callers may use for stricter
// gating. It grows with success rate and decays with age, within [0.4, 1].
func ConfidenceThreshold(successRate float64, ageDays float64) float64 {
	if ageDays < 0 {
		ageDays = 0
	}
	agePenalty := ageDays / 30 * 0.2
	if agePenalty > 0.2 {
		agePenalty = 0.2
	}
	return util.Clamp(0.6+successRate*0.2-agePenalty, 0.4, 1.0)
}

func ageInDays(c model.ExecutionContext, now time.Time) float64 {
	return util.DaysBetween(c.Timestamp, now)
}

type Candidate struct {
	Pattern  Pattern
	Criteria model.PatternMatchingCriteria
}

// Rank returns the good matches among patterns, best first.
func Rank[P Pattern](patterns []P, req model.AutomationRequest, now time.Time) []Candidate {
	var out []Candidate
	for _, p := range patterns {
		c := EvaluateMatch(p, req, now)
		if IsGoodMatch(c) {
			out = append(out, Candidate{Pattern: p, Criteria: c})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Criteria.OverallScore != b.Criteria.OverallScore {
			return a.Criteria.OverallScore > b.Criteria.OverallScore
		}
		if a.Pattern.Confidence() != b.Pattern.Confidence() {
			return a.Pattern.Confidence() > b.Pattern.Confidence()
		}
		return a.Pattern.Id() < b.Pattern.Id()
	})
	return out
}

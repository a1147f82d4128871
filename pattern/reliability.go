package pattern

import (
	"time"

	"github.com/mohitkumar/autopilot/model"
	"github.com/mohitkumar/autopilot/util"
)

const (
	staleAfterDays        = 30.0
	agingAfterDays        = 7.0
	retrainAgeDays        = 14.0
	retrainIdleDays       = 7.0
	minPathOverlap        = 0.5
	driftTolerantRate     = 0.8
	retrainSuccessRate    = 0.5
	retrainMinUsage       = 3
	recentWindow          = 5
	recentFailureLimit    = 3
	experiencedUsageCount = 5
)

func (p *AutomationPattern) SuccessRate() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.successRate()
}

func (p *AutomationPattern) successRate() float64 {
	if p.usageCount <= 0 {
		return 0
	}
	return util.Clamp(float64(p.successfulExecutions)/float64(p.usageCount), 0, 1)
}

// AgeDays is the time since the pattern was learned.
func (p *AutomationPattern) AgeDays() float64 {
	return util.DaysBetween(p.context.Timestamp, p.clock.Now())
}

func (p *AutomationPattern) daysSinceLastExecution(now time.Time) float64 {
	if p.lastExecutedAt == nil {
		return util.DaysBetween(p.context.Timestamp, now)
	}
	return util.DaysBetween(*p.lastExecutedAt, now)
}

func (p *AutomationPattern) ReliabilityScore() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	score := float64(p.confidence) * (0.5 + p.successRate()*0.5)
	switch age := p.AgeDays(); {
	case age > staleAfterDays:
		score *= 0.3
	case age > agingAfterDays:
		score *= 0.7
	}
	if p.usageCount >= experiencedUsageCount {
		score *= 1.1
	}
	return util.Clamp(score, 0, 1)
}

// ReliabilityLevel buckets the reliability score. A pattern that never ran is
// at most medium.
func (p *AutomationPattern) ReliabilityLevel() model.ReliabilityLevel {
	level := bucket(p.ReliabilityScore())
	if level == model.RELIABILITY_HIGH && p.UsageCount() == 0 {
		return model.RELIABILITY_MEDIUM
	}
	return level
}

func bucket(score float64) model.ReliabilityLevel {
	switch {
	case score >= 0.8:
		return model.RELIABILITY_HIGH
	case score >= 0.6:
		return model.RELIABILITY_MEDIUM
	case score >= 0.4:
		return model.RELIABILITY_LOW
	default:
		return model.RELIABILITY_UNRELIABLE
	}
}

// IsValidForContext reports whether it is safe to apply the pattern on the
// given page. The first failing check decides.
func (p *AutomationPattern) IsValidForContext(current model.ExecutionContext) bool {
	if p.context.Hostname != current.Hostname {
		return false
	}
	if util.PathOverlap(p.context.Pathname, current.Pathname) < minPathOverlap {
		return false
	}
	if p.AgeDays() > staleAfterDays {
		return false
	}
	if p.context.HasFingerprint() && current.HasFingerprint() && p.context.PageFingerprint != current.PageFingerprint {
		return p.SuccessRate() > driftTolerantRate
	}
	return true
}

func (p *AutomationPattern) ShouldBeRetrained() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.successRate() < retrainSuccessRate && p.usageCount >= retrainMinUsage {
		return true
	}
	now := p.clock.Now()
	if util.DaysBetween(p.context.Timestamp, now) > retrainAgeDays && p.daysSinceLastExecution(now) > retrainIdleDays {
		return true
	}
	failures := 0
	for _, r := range p.history.last(recentWindow) {
		if !r.Success {
			failures++
		}
	}
	return failures >= recentFailureLimit
}

package pattern

const MaxConfidence Confidence = 2.0
const MinConfidence Confidence = 0.1
const InitialConfidence Confidence = 1.0

const successReward Confidence = 0.05
const failurePenalty Confidence = 0.1

// Confidence is a pattern's trust scalar. Failures cost twice what successes earn.
type Confidence float64

func (c Confidence) ApplySuccess() Confidence {
	next := c + successReward
	if next > MaxConfidence {
		return MaxConfidence
	}
	return next
}

func (c Confidence) ApplyFailure() Confidence {
	next := c - failurePenalty
	if next < MinConfidence {
		return MinConfidence
	}
	return next
}

func (c Confidence) Apply(success bool) Confidence {
	if success {
		return c.ApplySuccess()
	}
	return c.ApplyFailure()
}

func (c Confidence) clamp() Confidence {
	switch {
	case c > MaxConfidence:
		return MaxConfidence
	case c < MinConfidence:
		return MinConfidence
	}
	return c
}

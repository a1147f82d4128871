package util

import "strings"

func PathSegments(path string) []string {
	var segments []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}

// PathOverlap is the share of distinct segments common to both paths.
// Two root paths overlap fully.
func PathOverlap(a, b string) float64 {
	setA := ToSet(PathSegments(a))
	setB := ToSet(PathSegments(b))
	union := len(setA)
	shared := 0
	for s := range setB {
		if _, ok := setA[s]; ok {
			shared++
		} else {
			union++
		}
	}
	if union == 0 {
		return 1.0
	}
	return float64(shared) / float64(union)
}

package util

func Contains[T comparable](in []T, v T) bool {
	for _, e := range in {
		if e == v {
			return true
		}
	}
	return false
}

func ToSet[T comparable](in []T) map[T]struct{} {
	set := make(map[T]struct{}, len(in))
	for _, e := range in {
		set[e] = struct{}{}
	}
	return set
}

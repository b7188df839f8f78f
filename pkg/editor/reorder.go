package editor

// Move returns a copy of s with the element at from removed and reinserted
// at to; every other element keeps its relative order. It is a single
// splice, not a swap. When from equals to, or either index is out of
// bounds, the input is returned unchanged: a stale index is legitimate when
// the element disappeared between gesture start and end, so it is ignored
// rather than rejected.
func Move[T any](s []T, from, to int) []T {
	if from == to || from < 0 || to < 0 || from >= len(s) || to >= len(s) {
		return s
	}
	out := make([]T, 0, len(s))
	out = append(out, s[:from]...)
	out = append(out, s[from+1:]...)
	// out now lacks the moved element; splice it back in at to.
	out = append(out[:to], append([]T{s[from]}, out[to:]...)...)
	return out
}

package extract

// Located is a strategy result together with the byte span it was found at.
type Located[T any] struct {
	Value T
	Start int
	End   int
}

// Matcher is a pure function that looks for one format variant in text.
type Matcher[T any] func(text string) (Located[T], bool)

// FirstMatch tries matchers in priority order and returns the result of the
// first one that matches. Later matchers are not consulted.
func FirstMatch[T any](matchers ...Matcher[T]) Matcher[T] {
	return func(text string) (Located[T], bool) {
		for _, m := range matchers {
			if loc, ok := m(text); ok {
				return loc, true
			}
		}
		var zero Located[T]
		return zero, false
	}
}

// Earliest runs every matcher and returns the match that starts first in the
// text. Ties go to the matcher listed first.
func Earliest[T any](matchers ...Matcher[T]) Matcher[T] {
	return func(text string) (Located[T], bool) {
		var best Located[T]
		found := false
		for _, m := range matchers {
			loc, ok := m(text)
			if !ok {
				continue
			}
			if !found || loc.Start < best.Start {
				best = loc
				found = true
			}
		}
		return best, found
	}
}

// Package extract turns raw post text and calendar widget cells into event
// records.
//
// Each format variant (a date layout, a time-range style) is a Matcher: a pure
// function from text to an optional located result. Matchers are combined
// with FirstMatch (priority order) or Earliest (position in text).
package extract

// Package cli implements the eventsync command-line interface.
//
// The Cobra commands wire configuration, the feed renderers, the calendar
// scraper and the venue stores together: collect and calendar gather new
// records and merge them, extract and merge expose the pipeline stages on
// their own, list and edit support review, and publish exports the records
// ready for the public page.
package cli

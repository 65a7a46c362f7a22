// Package scraper fetches venue web pages over HTTP and parses them with
// goquery.
//
// Fetcher performs GET requests with a fixed User-Agent, retrying network
// failures and 5xx responses with exponential backoff. Scraper reads
// month-view calendar widgets: every day cell marked has_events yields one
// extract.Cell per listed event, dated from the cell's d_N class and the
// month shown in the widget header.
package scraper

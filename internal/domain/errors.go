package domain

import "errors"

var (
	// ErrNotFound is returned by stores when the requested record does not
	// exist.
	ErrNotFound = errors.New("not found")

	// ErrCrawlRunning is returned when an operation conflicts with an
	// active crawl.
	ErrCrawlRunning = errors.New("crawl already running")

	// ErrCrawlNotRunning is returned when a stop is requested while idle.
	ErrCrawlNotRunning = errors.New("no crawl running")
)

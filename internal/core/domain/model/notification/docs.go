// Package notification provides the queued notification record and its retry
// rules. Records live in a file-backed pending queue between runs of the
// notification processor; a record leaves the queue once it is dispatched
// successfully or once it has failed MaxRetries times.
package notification

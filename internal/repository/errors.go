// Package repository holds the console's in-memory entity caches and the
// small amount of state it persists itself (undeliverable audit entries).
package repository

import "errors"

// ErrNotFound is returned when a requested entity is not in the cache or
// table.  Handlers translate it into a 404.
var ErrNotFound = errors.New("not found")

//go:build !debug

package syncutil

import "sync"

// Mutex is a plain sync.Mutex outside debug builds.
type Mutex = sync.Mutex

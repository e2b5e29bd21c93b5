package ratelimit

import "time"

// Limiter admits or rejects one request for key. When it rejects, wait is
// how long until the next request for key would be admitted.
type Limiter interface {
	Allow(key string) (ok bool, wait time.Duration)
}

// Package ratelimit paces requests to the journal service.
//
// The listing client and the media fetcher share one TokenBucket so that
// a long archive run stays well below what a person clicking through the
// site would generate:
//
//	limiter := ratelimit.NewTokenBucket(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.BurstSize)
//	if err := limiter.Wait(ctx); err != nil {
//		return err // context cancelled
//	}
package ratelimit

// Package ratelimit caps how many real unfollow actions may happen within a
// time window. The session timer already pauses the run periodically; this
// is an additional hard ceiling configured through action.max_per_hour
//
// New(0, window) returns Unlimited, so callers can always hold a Limiter
package ratelimit

// Package redis provides the Redis connection infrastructure used by
// the Redis-backed usage counter store: URL-based configuration,
// connect-with-retries, and a health check closure.
package redis

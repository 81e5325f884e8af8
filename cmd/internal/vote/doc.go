// Package vote implements anonymous, time-limited ranked-choice voting for a division.
//
// Three components share one Store:
//   - Issuer mints opaque session tokens and answers liveness checks.
//   - Collector is the only path that creates a Ballot; it consumes the session
//     and inserts the ballot as one atomic store operation.
//   - Aggregator scores committed ballots with a length-normalized Borda count.
//
// Tokens are bearer secrets. They are passed explicitly on every call and the
// store only ever sees their hash. Expiry is evaluated lazily against the
// caller-supplied clock; nothing runs in the background.
package vote

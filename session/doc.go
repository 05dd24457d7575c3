// Package session implements the unit of work behind a repository: it tracks
// entity instances by identity, records whether each one is pending insert,
// update or delete, composes queries, and flushes every pending change in a
// single transaction on SaveChanges.
package session

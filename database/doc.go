// Package database opens and closes the Bun handles backing a session:
// connection-string parsing, YAML and environment configuration, dialect
// selection for postgres, mysql and sqlite, query hooks, driver error
// classification, model registration and logging.
package database

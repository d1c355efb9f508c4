// Package history persists fetch run outcomes to SQLite so past runs can be
// inspected without re-scanning the library.
package history

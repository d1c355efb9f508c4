// Package logging builds slog loggers for the CLI and pipeline components.
//
// Two output formats are supported: a human-oriented console format used by
// default, and JSON for log shipping. Component loggers carry a "component"
// attribute that the console handler promotes into the message prefix.
package logging

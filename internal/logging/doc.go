// Package logging configures slog for the daemon and CLI. The console format
// renders compact single line records with the component as a message prefix;
// the JSON format targets log shippers. Field name constants keep structured
// keys consistent across components.
package logging

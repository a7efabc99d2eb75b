// Command photoflow enriches photo metadata from the command line: one-shot
// batch runs, a continuous watch mode, registry status and retry, plus
// schema and configuration utilities.
package main

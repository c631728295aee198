// Package tui is the interactive dashboard for an archive run, built on
// bubbletea. The dashboard runs on the main goroutine and the pipeline on
// another; TUI turns pipeline events into program messages.
package tui

// Package ui renders archive runs for people: coloured terminal output, a
// progress line and notifications. The interactive dashboard lives in
// package tui.
package ui

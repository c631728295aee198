// Package journal writes observations-info.md, a readable markdown index
// of every observation seen in an archive run with its author, date,
// notes and the files stored for it.
package journal

// Package shorts tracks the lifecycle of derived vertical shorts and their
// export history in a local SQLite database.
//
// A short is keyed by the five-part identity of the editing artifacts it
// came from, so rebuilding the same plan reuses the existing record instead
// of forking a duplicate. Exports are immutable rows appended per finished
// render; the short's last_export_id always points at the newest successful
// artifact.
package shorts

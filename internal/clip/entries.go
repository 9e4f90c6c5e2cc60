package clip

// Entry is a timed text entry from a caption track. End is optional: an
// open-ended entry extends from Start until it is superseded by a later
// entry.
type Entry struct {
	Text  string
	Start float64
	End   *float64
}

// Overlapping returns the entries intersecting the window under half-open
// interval semantics: entryStart < window.End && entryEnd > window.Start.
// A nil End is treated as the entry's Start for the overlap test.
func Overlapping(w Window, entries []Entry) []Entry {
	var out []Entry
	for _, e := range entries {
		end := e.Start
		if e.End != nil {
			end = *e.End
		}
		if e.Start < w.End && end > w.Start {
			out = append(out, e)
		}
	}
	return out
}

// FindActive returns the entry whose [start, end) interval contains t.
// An entry with a nil End is active from its start onward until a later
// entry supersedes it. The second return is false when nothing matches.
func FindActive(entries []Entry, t float64) (Entry, bool) {
	var (
		best  Entry
		found bool
	)
	for _, e := range entries {
		if e.Start > t {
			continue
		}
		if !found || e.Start >= best.Start {
			best = e
			found = true
		}
	}
	if !found {
		return Entry{}, false
	}
	if best.End != nil && t >= *best.End {
		return Entry{}, false
	}
	return best, true
}

// Relative translates an entry from absolute source time into clip-relative
// time, clamping it to the window bounds.
func Relative(w Window, e Entry) Entry {
	start := e.Start
	if start < w.Start {
		start = w.Start
	}
	out := Entry{Text: e.Text, Start: round2(start - w.Start)}
	if e.End != nil {
		end := *e.End
		if end > w.End {
			end = w.End
		}
		rel := round2(end - w.Start)
		out.End = &rel
	}
	return out
}

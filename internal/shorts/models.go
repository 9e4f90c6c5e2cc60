package shorts

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a short.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusExporting Status = "exporting"
	StatusExported  Status = "exported"
	StatusError     Status = "error"
)

var allStatuses = []Status{
	StatusDraft,
	StatusExporting,
	StatusExported,
	StatusError,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// validTransitions lists every allowed lifecycle edge. Exported and errored
// shorts can re-enter exporting; nothing leaves exporting except through a
// terminal mark.
var validTransitions = map[Status][]Status{
	StatusDraft:     {StatusExporting},
	StatusExporting: {StatusExported, StatusError},
	StatusExported:  {StatusExporting},
	StatusError:     {StatusExporting},
}

// ValidStatus reports whether value names a known lifecycle status.
func ValidStatus(value Status) bool {
	_, ok := statusSet[value]
	return ok
}

// ParseStatus normalizes a user-supplied status string.
func ParseStatus(value string) (Status, bool) {
	status := Status(strings.ToLower(strings.TrimSpace(value)))
	return status, ValidStatus(status)
}

// CanTransition reports whether a short may move from one status to another.
func CanTransition(from, to Status) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Identity is the five-part natural key tying a short back to the editing
// artifacts it was derived from. Two shorts with equal identities are the
// same short.
type Identity struct {
	SourceProjectID string
	TranscriptID    string
	CaptionTrackID  string
	ClipID          string
	PlanID          string
}

// Complete reports whether every identity part is present.
func (id Identity) Complete() bool {
	return strings.TrimSpace(id.SourceProjectID) != "" &&
		strings.TrimSpace(id.TranscriptID) != "" &&
		strings.TrimSpace(id.CaptionTrackID) != "" &&
		strings.TrimSpace(id.ClipID) != "" &&
		strings.TrimSpace(id.PlanID) != ""
}

// Short is one vertical short derived from a source project.
type Short struct {
	ID string
	Identity

	Name         string
	Status       Status
	ErrorMessage string
	LastExportID string

	ClipStart float64
	ClipEnd   float64
	Preset    string
	Zoom      float64
	PanX      float64
	PanY      float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ExportRecord is the immutable outcome of one finished export pass.
type ExportRecord struct {
	ID      string
	ShortID string

	OutputPath       string
	SeekMode         string
	CaptionsBurnedIn bool
	FilterGraph      string
	Attempts         int
	ArtifactBytes    int64
	Elapsed          time.Duration
	Notes            []string

	CreatedAt time.Time
}

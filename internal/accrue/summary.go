package accrue

import (
	"regexp"

	"github.com/theirongolddev/orline/internal/state"
)

// Status describes what the last reconcile did.
type Status int

const (
	// StatusIdle means the transcript had no uncounted generations.
	StatusIdle Status = iota
	// StatusUpdated means every new generation was counted.
	StatusUpdated
	// StatusRetrying means at least one new generation failed to fetch.
	StatusRetrying
)

func (s Status) String() string {
	switch s {
	case StatusUpdated:
		return "updated"
	case StatusRetrying:
		return "retrying"
	default:
		return "idle"
	}
}

// Summary is the display-ready result of a reconcile.
type Summary struct {
	Model         string // short model name
	Provider      string
	TotalCost     float64
	CacheDiscount float64
	Credits       float64 // remaining credit, valid only when CreditsKnown
	CreditsKnown  bool
	Status        Status
	New           int // uncounted ids found this run
	Failed        int // of those, how many failed to fetch
	Record        state.Record
}

var (
	namespacePrefix = regexp.MustCompile(`^[^/]+/`)
	dateSuffix      = regexp.MustCompile(`-\d{8}$`)
)

// ShortModelName drops a "namespace/" prefix and a trailing -YYYYMMDD date.
//
//	"openrouter/gpt-4-20240101" -> "gpt-4"
func ShortModelName(model string) string {
	model = namespacePrefix.ReplaceAllString(model, "")
	return dateSuffix.ReplaceAllString(model, "")
}

package timeline

import (
	"strings"
	"time"

	"medvault/core/fields"
)

// Container identifies the resolved whitelist object version.
type Container struct {
	Address string `json:"address"`
	Version uint64 `json:"version"`
	Digest  string `json:"digest"`
}

// ReconciledView is the output of one resolve pass. Entries is the
// filtered (and optionally enriched) timeline; AllEntries keeps every
// decoded entry regardless of ownership for cross-referencing audit views.
type ReconciledView struct {
	Whitelist    Container              `json:"whitelist"`
	Entries      []fields.TimelineEntry `json:"entries"`
	AllEntries   []fields.TimelineEntry `json:"allEntries"`
	DepositPools []fields.DepositPool   `json:"depositPools"`
	OtherFields  []fields.DecodedField  `json:"-"`
	PatientRef   []byte                 `json:"patientRefBytes,omitempty"`
	FetchedAt    time.Time              `json:"fetchedAt"`
}

// EntriesByType returns the filtered entries with the given type code.
func (v *ReconciledView) EntriesByType(entryType int) []fields.TimelineEntry {
	var out []fields.TimelineEntry
	for _, e := range v.Entries {
		if e.EntryType == entryType {
			out = append(out, e)
		}
	}
	return out
}

// EntriesByStatus returns the filtered entries with the given status,
// compared case-insensitively.
func (v *ReconciledView) EntriesByStatus(status string) []fields.TimelineEntry {
	var out []fields.TimelineEntry
	for _, e := range v.Entries {
		if strings.EqualFold(e.Status, status) {
			out = append(out, e)
		}
	}
	return out
}

// ActiveEntries returns the filtered entries that have not been revoked.
func (v *ReconciledView) ActiveEntries() []fields.TimelineEntry {
	var out []fields.TimelineEntry
	for _, e := range v.Entries {
		if !e.Revoked {
			out = append(out, e)
		}
	}
	return out
}

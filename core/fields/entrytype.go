package fields

import "fmt"

// Entry-type codes as written by the vault contract.
const (
	EntryVisitSummary = 0
	EntryProcedure    = 1
	EntryRefill       = 2
	EntryNote         = 3
	EntryDiagnosis    = 4
	EntryLabResult    = 5
	EntryImmunization = 6
)

var entryTypeNames = map[int]string{
	EntryVisitSummary: "visit_summary",
	EntryProcedure:    "procedure",
	EntryRefill:       "refill",
	EntryNote:         "note",
	EntryDiagnosis:    "diagnosis",
	EntryLabResult:    "lab_result",
	EntryImmunization: "immunization",
}

// EntryTypeName maps an entry-type code to its category name. Codes outside
// the known table fall back to type_N so new contract versions still render.
func EntryTypeName(code int) string {
	if name, ok := entryTypeNames[code]; ok {
		return name
	}
	return fmt.Sprintf("type_%d", code)
}

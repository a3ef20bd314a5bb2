package access

import "strings"

// Doc-type codes declared on uploaded record files.
const (
	DocLabResult    = 0
	DocImaging      = 1
	DocReport       = 2
	DocPrescription = 3
	DocOther        = 4
)

// Preferred MIME type per doc-type code, matching what the upload path
// accepts for each category.
var docTypeMIME = map[int]string{
	DocLabResult:    "text/csv",
	DocImaging:      "image/jpeg",
	DocReport:       "application/pdf",
	DocPrescription: "application/pdf",
	DocOther:        "application/octet-stream",
}

// DocTypeMIME maps a doc-type code to the MIME type used for inline
// display. Unknown codes get no inline preview.
func DocTypeMIME(docType int) string {
	if mime, ok := docTypeMIME[docType]; ok {
		return mime
	}
	return "application/octet-stream"
}

// MIMEFamily buckets a MIME type into the inline-display families.
func MIMEFamily(mimeType string) string {
	switch {
	case strings.HasPrefix(mimeType, "text/"):
		return "text"
	case strings.HasPrefix(mimeType, "image/"):
		return "image"
	case mimeType == "application/pdf" || strings.Contains(mimeType, "word"):
		return "document"
	default:
		return "binary"
	}
}

// CanPreviewInline reports whether content of this MIME type can be shown
// without downloading.
func CanPreviewInline(mimeType string) bool {
	return MIMEFamily(mimeType) != "binary"
}

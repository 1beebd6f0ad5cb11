package event

import "strings"

var imageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// ImageReference returns the value of the last attachment declaring an
// accepted image media type, or "" when none qualifies.
func ImageReference(attachments []Attachment) string {
	ref := ""
	for _, a := range attachments {
		if imageTypes[strings.ToLower(strings.TrimSpace(a.FmtType))] {
			ref = a.Value
		}
	}
	return ref
}

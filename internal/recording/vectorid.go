package recording

import (
	"fmt"
	"strconv"
	"strings"
)

// formatVectorDocumentID renders the "summary-{recording_id}-{minute_index}"
// form. Kept as a separate unexported function so [VectorDocumentID] stays
// the only public entry point, per the design note that this ID format is a
// formal interface computed and parsed from one place.
func formatVectorDocumentID(recordingID int64, minuteIndex int) string {
	return fmt.Sprintf("summary-%d-%d", recordingID, minuteIndex)
}

// ParseVectorDocumentID extracts the recording ID and minute index back out
// of a vector document ID produced by [VectorDocumentID]. Returns false if id
// is not in the expected form.
func ParseVectorDocumentID(id string) (recordingID int64, minuteIndex int, ok bool) {
	parts := strings.Split(id, "-")
	if len(parts) != 3 || parts[0] != "summary" {
		return 0, 0, false
	}
	rid, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, 0, false
	}
	mi, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0, 0, false
	}
	return rid, mi, true
}

package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

const fingerprintLength = 16

// PortalFingerprint identifies a portal deadline by course, normalized title
// and UTC calendar day. Two scrapes that only disagree on the time of day
// produce the same value. The day is taken in UTC, not the portal's zone, so
// a late evening deadline west of Greenwich hashes under the next date. The
// ledger already holds ids built this way; changing the zone would re-create
// every tracked reminder.
func PortalFingerprint(courseID, title string, due time.Time) string {
	day := due.UTC().Format(time.DateOnly)
	return shortHash(courseID + "-" + strings.ToLower(strings.TrimSpace(title)) + "-" + day)
}

// DocumentFingerprint identifies a document deadline by its scope (usually the
// course name the document belongs to) and exact due instant.
func DocumentFingerprint(scope string, due time.Time) string {
	return shortHash("syllabus-" + scope + "-" + due.UTC().Format("2006-01-02T15:04:05.000Z07:00"))
}

func shortHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:fingerprintLength]
}

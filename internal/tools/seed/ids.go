package seed

import "github.com/google/uuid"

// IDGenerator assigns document ids to catalog entries.
type IDGenerator interface {
	NewID(entry Entry) string
}

// RandomIDs issues a fresh version 4 UUID per call.
type RandomIDs struct{}

func (RandomIDs) NewID(Entry) string {
	return uuid.NewString()
}

// stableNamespace scopes name-based ids to this tool.
var stableNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/louisbranch/elephant-bootstrap/seed"))

// StableIDs derives a version 5 UUID from the entry's natural key, so a
// re-run targets the same documents.
type StableIDs struct{}

func (StableIDs) NewID(entry Entry) string {
	return uuid.NewSHA1(stableNamespace, []byte(entry.NaturalKey())).String()
}

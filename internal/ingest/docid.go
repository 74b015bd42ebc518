package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
)

const docIDPrefix = "doc:"

// docIDFor returns a stable document ID for the given absolute path. The
// same path always yields the same ID, so re-ingesting a file updates the
// same document.
func docIDFor(absPath string) string {
	hash := sha256.Sum256([]byte(filepath.Clean(absPath)))
	return docIDPrefix + hex.EncodeToString(hash[:])
}

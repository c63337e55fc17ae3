// Package snapshot writes an atomic debug dump of a live room's document
// state to a local path (spec §C.2). It is a side-channel for operators,
// not part of the authoritative persistence path in spec §6.1 — the room
// is never aware this package exists.
package snapshot

import (
	"encoding/json"
	"fmt"

	"github.com/google/renameio"

	"github.com/rbitr/altdocs/internal/model"
)

// Snapshot is the on-disk shape written by Write.
type Snapshot struct {
	DocumentID string          `json:"documentId"`
	Version    uint64          `json:"version"`
	Document   model.Document  `json:"document"`
}

// Write dumps doc/version to path atomically: the file at path either
// contains a complete, valid snapshot or is untouched, even if the
// process is killed mid-write (grounded in jcorbin-soc's
// streamStore.save, which uses the same renameio.TempFile +
// CloseAtomicallyReplace pattern for its Markdown log).
func Write(path, documentID string, version uint64, doc model.Document) (rerr error) {
	pf, err := renameio.TempFile("", path)
	if err != nil {
		return fmt.Errorf("snapshot: open temp file: %w", err)
	}
	defer func() {
		if rerr == nil {
			rerr = pf.CloseAtomicallyReplace()
		}
		if cerr := pf.Cleanup(); rerr == nil {
			rerr = cerr
		}
	}()

	enc := json.NewEncoder(pf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Snapshot{DocumentID: documentID, Version: version, Document: doc}); err != nil {
		return fmt.Errorf("snapshot: encode: %w", err)
	}
	return nil
}

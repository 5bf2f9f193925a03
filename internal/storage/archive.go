package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"

	"github.com/agendametrics/apiserver/types"
)

const archivePrefix = "archives/users"

// Archiver writes account snapshots as JSON objects.
type Archiver struct {
	backend ObjectStorage
}

func NewArchiver(backend ObjectStorage) *Archiver {
	return &Archiver{backend: backend}
}

// ArchiveKey returns the object key holding the snapshot of userID.
func ArchiveKey(userID string) string {
	return path.Join(archivePrefix, userID+".json")
}

func (a *Archiver) ArchiveUser(ctx context.Context, archive types.UserArchive) error {
	if archive.Routines == nil {
		archive.Routines = []types.Routine{}
	}
	data, err := json.Marshal(archive)
	if err != nil {
		return fmt.Errorf("encode archive: %w", err)
	}
	key := ArchiveKey(archive.User.ID)
	if err := a.backend.Put(ctx, key, bytes.NewReader(data), int64(len(data)), "application/json"); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

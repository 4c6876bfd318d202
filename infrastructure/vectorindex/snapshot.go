package vectorindex

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jhleee/geo-search-api/domain/vector"
)

// indexSnapshot is the gob payload for the index structure file.
type indexSnapshot struct {
	State     string
	Dimension int
	Vectors   [][]float32
	Centroids [][]float32
	Lists     [][]int32
}

// metaSnapshot is the gob payload for the ID mapping file.
type metaSnapshot struct {
	IDs    []int64
	NextID int64
}

// saveLocked writes the structure and meta snapshot files. Called with the
// write lock held. Each file is written to a temp sibling and renamed so a
// crash mid-write never leaves a truncated snapshot.
func (ix *Index) saveLocked() error {
	if ix.opts.IndexPath == "" || ix.opts.MetaPath == "" {
		return nil
	}

	snap := indexSnapshot{
		State:     string(ix.state),
		Dimension: ix.opts.Dimension,
		Vectors:   ix.vectors,
	}
	if ix.coarse != nil {
		snap.Centroids = ix.coarse.centroids
		snap.Lists = ix.coarse.lists
	}
	if err := writeGob(ix.opts.IndexPath, snap); err != nil {
		return fmt.Errorf("write index snapshot: %w", err)
	}

	meta := metaSnapshot{IDs: ix.ids, NextID: ix.nextID}
	if err := writeGob(ix.opts.MetaPath, meta); err != nil {
		return fmt.Errorf("write meta snapshot: %w", err)
	}

	ix.logger.Debug("vector index snapshot written",
		"vectors", len(ix.vectors), "path", ix.opts.IndexPath)
	return nil
}

// load restores the index from its snapshot files. Missing files leave the
// index empty without error; anything else inconsistent is reported so the
// caller can discard the snapshot.
func (ix *Index) load() error {
	var snap indexSnapshot
	found, err := readGob(ix.opts.IndexPath, &snap)
	if err != nil {
		return fmt.Errorf("read index snapshot: %w", err)
	}
	if !found {
		return nil
	}

	var meta metaSnapshot
	found, err = readGob(ix.opts.MetaPath, &meta)
	if err != nil {
		return fmt.Errorf("read meta snapshot: %w", err)
	}
	if !found {
		return fmt.Errorf("meta snapshot missing at %s", ix.opts.MetaPath)
	}

	if snap.Dimension != ix.opts.Dimension {
		return fmt.Errorf("%w: snapshot has %d, want %d",
			ErrDimensionMismatch, snap.Dimension, ix.opts.Dimension)
	}
	if len(snap.Vectors) != len(meta.IDs) {
		return fmt.Errorf("snapshot has %d vectors but %d ids",
			len(snap.Vectors), len(meta.IDs))
	}

	state := vector.State(snap.State)
	switch state {
	case vector.StateFlat, vector.StateQuantized:
	default:
		return fmt.Errorf("unknown snapshot state %q", snap.State)
	}

	if state == vector.StateQuantized {
		if len(snap.Centroids) == 0 {
			return fmt.Errorf("quantized snapshot has no centroids")
		}
		coarse := newCoarseQuantizer(ix.opts.Dimension, len(snap.Centroids), ix.opts.Probes)
		coarse.centroids = snap.Centroids
		coarse.lists = snap.Lists
		if len(coarse.lists) != len(coarse.centroids) {
			return fmt.Errorf("snapshot has %d centroids but %d lists",
				len(coarse.centroids), len(coarse.lists))
		}
		ix.coarse = coarse
	}

	ix.vectors = snap.Vectors
	ix.ids = meta.IDs
	ix.nextID = meta.NextID
	ix.state = state
	return nil
}

// writeGob encodes v into path atomically via a temp file.
func writeGob(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(v); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// readGob decodes path into v. Returns false with no error when the file
// does not exist.
func readGob(path string, v any) (bool, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer f.Close()

	if err := gob.NewDecoder(f).Decode(v); err != nil {
		return true, err
	}
	return true, nil
}

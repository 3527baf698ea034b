package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strconv"
	"strings"

	"github.com/mfenderov/taryag/internal/storage"
	"github.com/mfenderov/taryag/pkg/models"
)

// Artifact names, relative to the backend root.
const (
	RecordsDir     = "mitzvot"
	CollectionName = "all_mitzvot.json"
	IndexName      = "index.json"
	FailuresName   = "failed.json"
)

// RecordName returns the artifact name of one record, e.g. "mitzvot/007.json".
func RecordName(id int) string {
	return path.Join(RecordsDir, fmt.Sprintf("%03d.json", id))
}

// Store persists records, the collection, the index and pending failures.
type Store struct {
	backend storage.Backend
}

// New creates a Store on top of a storage backend.
func New(backend storage.Backend) *Store {
	return &Store{backend: backend}
}

// Backend returns the underlying storage backend.
func (s *Store) Backend() storage.Backend {
	return s.backend
}

// Location describes where artifacts are stored.
func (s *Store) Location() string {
	return s.backend.Location()
}

func (s *Store) putJSON(ctx context.Context, name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}
	return s.backend.Put(ctx, name, data)
}

// getJSON decodes an artifact into v. It reports false, without error, when
// the artifact does not exist.
func (s *Store) getJSON(ctx context.Context, name string, v any) (bool, error) {
	data, err := s.backend.Get(ctx, name)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return true, nil
}

// PersistRecord writes one record as its own artifact, replacing any previous version.
func (s *Store) PersistRecord(ctx context.Context, record models.Record) error {
	return s.putJSON(ctx, RecordName(record.ID), record)
}

// PersistCollection writes the whole ordered collection as one artifact.
func (s *Store) PersistCollection(ctx context.Context, collection models.Collection) error {
	if collection == nil {
		collection = models.Collection{}
	}
	return s.putJSON(ctx, CollectionName, collection)
}

// LoadCollection reads the collection artifact. A missing artifact is the
// normal first-run state and yields found=false with a nil error.
func (s *Store) LoadCollection(ctx context.Context) (models.Collection, bool, error) {
	var collection models.Collection
	found, err := s.getJSON(ctx, CollectionName, &collection)
	if err != nil || !found {
		return nil, found, err
	}
	return collection, true, nil
}

// LoadRecords reads every per-record artifact, sorted by ID. Artifacts that
// cannot be read or parsed are skipped with a warning.
func (s *Store) LoadRecords(ctx context.Context) (models.Collection, error) {
	names, err := s.backend.List(ctx, RecordsDir)
	if err != nil {
		return nil, err
	}

	collection := models.Collection{}
	for _, name := range names {
		if _, err := strconv.Atoi(strings.TrimSuffix(name, ".json")); err != nil || path.Ext(name) != ".json" {
			slog.Debug("skipping non-record artifact", "name", name)
			continue
		}

		var record models.Record
		found, err := s.getJSON(ctx, path.Join(RecordsDir, name), &record)
		if err != nil || !found {
			slog.Warn("skipping unreadable record artifact", "name", name, "error", err)
			continue
		}
		collection = append(collection, record)
	}

	collection.SortByID()
	return collection, nil
}

// PersistIndex writes the derived index.
func (s *Store) PersistIndex(ctx context.Context, entries []models.IndexEntry) error {
	if entries == nil {
		entries = []models.IndexEntry{}
	}
	return s.putJSON(ctx, IndexName, entries)
}

// LoadIndex reads the derived index, reporting whether it exists.
func (s *Store) LoadIndex(ctx context.Context) ([]models.IndexEntry, bool, error) {
	var entries []models.IndexEntry
	found, err := s.getJSON(ctx, IndexName, &entries)
	return entries, found, err
}

// PersistFailures writes the pending failure set.
func (s *Store) PersistFailures(ctx context.Context, failures models.Failures) error {
	return s.putJSON(ctx, FailuresName, failures.Dedupe())
}

// LoadFailures reads the pending failure set. No artifact means nothing is pending.
func (s *Store) LoadFailures(ctx context.Context) (models.Failures, error) {
	var failures models.Failures
	if _, err := s.getJSON(ctx, FailuresName, &failures); err != nil {
		return nil, err
	}
	return failures.Dedupe(), nil
}

// RemoveFailures deletes the failure artifact, marking no retry as pending.
func (s *Store) RemoveFailures(ctx context.Context) error {
	return s.backend.Delete(ctx, FailuresName)
}

// FailuresPending reports whether a failure artifact exists.
func (s *Store) FailuresPending(ctx context.Context) (bool, error) {
	_, err := s.backend.Get(ctx, FailuresName)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

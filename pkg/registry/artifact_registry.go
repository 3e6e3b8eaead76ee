package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/plexushq/plexus-registry-server/pkg/logger"
)

// SolutionCreator is the downstream collaborator invoked when an approved
// artifact is promoted. It returns the identifier of the created solution.
type SolutionCreator func(ctx context.Context, artifact *ArtifactRecord) (string, error)

// ArtifactStore is the storage seam behind the artifact registry. The
// in-memory store is the default; a deployment that backs the cache with
// real storage supplies its own. Implementations do not need to be
// goroutine-safe: the registry serializes access.
type ArtifactStore interface {
	GetLatest(artifactID string) (*ArtifactRecord, bool)
	PutLatest(record *ArtifactRecord) error
	GetVersion(versionKey string) (*ArtifactRecord, bool)
	PutVersion(versionKey string, record *ArtifactRecord) error
	List() []*ArtifactRecord
	Count() int
}

// memoryArtifactStore keeps latest records and immutable version snapshots
// in plain maps.
type memoryArtifactStore struct {
	latest   map[string]*ArtifactRecord
	versions map[string]*ArtifactRecord
}

// NewMemoryArtifactStore returns the default in-memory artifact store.
func NewMemoryArtifactStore() ArtifactStore {
	return &memoryArtifactStore{
		latest:   make(map[string]*ArtifactRecord),
		versions: make(map[string]*ArtifactRecord),
	}
}

func (s *memoryArtifactStore) GetLatest(artifactID string) (*ArtifactRecord, bool) {
	record, ok := s.latest[artifactID]
	return record, ok
}

func (s *memoryArtifactStore) PutLatest(record *ArtifactRecord) error {
	s.latest[record.ArtifactID] = record
	return nil
}

func (s *memoryArtifactStore) GetVersion(versionKey string) (*ArtifactRecord, bool) {
	record, ok := s.versions[versionKey]
	return record, ok
}

func (s *memoryArtifactStore) PutVersion(versionKey string, record *ArtifactRecord) error {
	s.versions[versionKey] = record
	return nil
}

func (s *memoryArtifactStore) List() []*ArtifactRecord {
	out := make([]*ArtifactRecord, 0, len(s.latest))
	for _, record := range s.latest {
		out = append(out, record)
	}
	return out
}

func (s *memoryArtifactStore) Count() int {
	return len(s.latest)
}

// ArtifactRegistry owns versioned work objects with the strict approval
// workflow. Every status change bumps the version by exactly one and writes
// both the latest record and an immutable versioned snapshot. Artifacts are
// never hard-deleted; cancelled and completed are the logical ends.
type ArtifactRegistry struct {
	mu    sync.RWMutex
	store ArtifactStore
	locks *keyLock
	clock func() time.Time
}

// NewArtifactRegistry creates an artifact registry over the given store; a
// nil store gets the in-memory default.
func NewArtifactRegistry(store ArtifactStore) *ArtifactRegistry {
	if store == nil {
		store = NewMemoryArtifactStore()
	}
	return &ArtifactRegistry{
		store: store,
		locks: newKeyLock(),
		clock: time.Now,
	}
}

// Create registers a new artifact in draft at version 1.
func (r *ArtifactRegistry) Create(_ context.Context, artifactType string, data map[string]any, clientID string) (*ArtifactRecord, error) {
	if artifactType == "" {
		return nil, fmt.Errorf("%w: artifact_type is required", ErrValidation)
	}

	now := r.clock()
	record := &ArtifactRecord{
		ArtifactID:   uuid.NewString(),
		ArtifactType: artifactType,
		ClientID:     clientID,
		Status:       ArtifactStatusDraft,
		Data:         cloneAnyMap(data),
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.writeLocked(record); err != nil {
		return nil, err
	}
	return record.Clone(), nil
}

// Get returns the latest version of an artifact.
func (r *ArtifactRegistry) Get(_ context.Context, artifactID string) (*ArtifactRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	record, ok := r.store.GetLatest(artifactID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, artifactID)
	}
	return record.Clone(), nil
}

// GetVersion returns the immutable snapshot of a specific version. When the
// snapshot is missing but the latest record happens to carry the requested
// version, the latest is returned as a fallback.
func (r *ArtifactRegistry) GetVersion(_ context.Context, artifactID string, version int) (*ArtifactRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if snapshot, ok := r.store.GetVersion(artifactVersionKey(artifactID, version)); ok {
		return snapshot.Clone(), nil
	}
	latest, ok := r.store.GetLatest(artifactID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, artifactID)
	}
	if latest.Version == version {
		return latest.Clone(), nil
	}
	return nil, fmt.Errorf("%w: %s version %d", ErrArtifactVersionNotFound, artifactID, version)
}

// UpdateStatus moves an artifact through the workflow table. Illegal
// transitions surface as ErrInvalidTransition and leave the stored record
// untouched.
func (r *ArtifactRegistry) UpdateStatus(ctx context.Context, artifactID string, newStatus ArtifactStatus) (*ArtifactRecord, error) {
	unlock := r.locks.Lock(artifactID)
	defer unlock()
	return r.updateStatus(ctx, artifactID, newStatus, nil)
}

// updateStatus performs the table check and dual write. Callers hold the
// artifact's key lock. mutate, when non-nil, is applied to the new version
// inside the same write (promotion links the solution id this way).
func (r *ArtifactRegistry) updateStatus(_ context.Context, artifactID string, newStatus ArtifactStatus, mutate func(*ArtifactRecord)) (*ArtifactRecord, error) {
	if !newStatus.Valid() {
		return nil, fmt.Errorf("%w: unknown artifact status %q", ErrValidation, newStatus)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.store.GetLatest(artifactID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, artifactID)
	}
	if !current.Status.CanTransitionTo(newStatus) {
		return nil, fmt.Errorf("%w: cannot transition from %q to %q",
			ErrInvalidTransition, current.Status, newStatus)
	}

	updated := current.Clone()
	updated.Status = newStatus
	updated.Version = current.Version + 1
	updated.UpdatedAt = r.clock()
	if mutate != nil {
		mutate(updated)
	}

	if err := r.writeLocked(updated); err != nil {
		return nil, err
	}
	return updated.Clone(), nil
}

// writeLocked persists the latest record and its immutable version snapshot.
// Caller must hold r.mu.
func (r *ArtifactRegistry) writeLocked(record *ArtifactRecord) error {
	if err := r.store.PutLatest(record); err != nil {
		return fmt.Errorf("store latest %s: %w", record.ArtifactID, err)
	}
	key := artifactVersionKey(record.ArtifactID, record.Version)
	if err := r.store.PutVersion(key, record.Clone()); err != nil {
		return fmt.Errorf("store snapshot %s: %w", key, err)
	}
	return nil
}

// Promote creates the downstream solution for an approved artifact and
// forces its status to implemented. The approval and client checks are
// atomic with the status update: the artifact's key lock is held across the
// whole sequence. If the downstream creation succeeds but the status update
// fails, the outcome reports partial success instead of rolling back the
// created solution.
func (r *ArtifactRegistry) Promote(ctx context.Context, artifactID, clientID string, create SolutionCreator) (*PromotionOutcome, error) {
	if create == nil {
		return nil, fmt.Errorf("%w: solution creator is required", ErrValidation)
	}

	unlock := r.locks.Lock(artifactID)
	defer unlock()

	r.mu.RLock()
	current, ok := r.store.GetLatest(artifactID)
	var snapshot *ArtifactRecord
	if ok {
		snapshot = current.Clone()
	}
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, artifactID)
	}
	if snapshot.ClientID != clientID {
		return nil, fmt.Errorf("%w: expected %q, got %q",
			ErrClientMismatch, snapshot.ClientID, clientID)
	}
	if snapshot.Status != ArtifactStatusApproved {
		return nil, fmt.Errorf("%w: must be %q to implement, current status is %q",
			ErrInvalidState, ArtifactStatusApproved, snapshot.Status)
	}

	solutionID, err := create(ctx, snapshot)
	if err != nil {
		return nil, fmt.Errorf("create solution from artifact %s: %w", artifactID, err)
	}

	updated, err := r.updateStatus(ctx, artifactID, ArtifactStatusImplemented,
		func(record *ArtifactRecord) {
			record.SolutionID = solutionID
		})
	if err != nil {
		// The solution exists; losing it over a bookkeeping failure would be
		// worse than the stale status. Report partial success.
		logger.Warn("solution created but artifact status update failed",
			"artifact_id", artifactID, "solution_id", solutionID, "error", err)
		return &PromotionOutcome{
			Artifact:      snapshot,
			SolutionID:    solutionID,
			StatusUpdated: false,
			Warning:       fmt.Sprintf("solution %s created but status update failed: %v", solutionID, err),
		}, nil
	}

	return &PromotionOutcome{
		Artifact:      updated,
		SolutionID:    solutionID,
		StatusUpdated: true,
	}, nil
}

// List returns artifacts matching the filter, newest first.
func (r *ArtifactRegistry) List(_ context.Context, filter ArtifactFilter) []*ArtifactRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*ArtifactRecord, 0)
	for _, record := range r.store.List() {
		if filter.ArtifactType != "" && record.ArtifactType != filter.ArtifactType {
			continue
		}
		if filter.ClientID != "" && record.ClientID != filter.ClientID {
			continue
		}
		if filter.Status != "" && record.Status != filter.Status {
			continue
		}
		out = append(out, record.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ArtifactID < out[j].ArtifactID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Count returns the number of artifacts (latest records only).
func (r *ArtifactRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.store.Count()
}

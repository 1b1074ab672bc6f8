package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/lazoapp/lazo/core"
	"github.com/lazoapp/lazo/core/relationship"
)

type relationshipRepository struct {
	db *DB
}

var _ relationship.Repository = (*relationshipRepository)(nil)

func NewRelationshipRepository(db *DB) *relationshipRepository {
	return &relationshipRepository{db: db}
}

func (repo *relationshipRepository) query() []relationship.Relationship {
	rels := make([]relationship.Relationship, 0, len(repo.db.relationships))
	for _, rel := range repo.db.relationships {
		rels = append(rels, *rel)
	}
	sort.Slice(rels, func(i, j int) bool { return rels[i].CreatedAt.After(rels[j].CreatedAt) })
	return rels
}

func (repo *relationshipRepository) CreateRelationship(ctx context.Context, rel relationship.Relationship) (relationship.Relationship, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if rel.ID == "" {
		rel.ID = uuid.New().String()
	}
	repo.db.relationships[rel.ID] = &rel
	return rel, nil
}

func (repo *relationshipRepository) GetRelationshipByID(ctx context.Context, id string) (relationship.Relationship, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if rel, ok := repo.db.relationships[id]; ok {
		return *rel, nil
	}
	return relationship.Relationship{}, relationship.ErrNotFound
}

func (repo *relationshipRepository) QueryRelationships(ctx context.Context, filter *relationship.QueryFilter, ordering []core.DBOrdering) ([]relationship.Relationship, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	rels := repo.query()
	if filter == nil || filter.IsEmpty() {
		return rels, nil
	}

	matched := make([]relationship.Relationship, 0, len(rels))
	for _, rel := range rels {
		if filter.EntrepreneurID != "" && rel.EntrepreneurID != filter.EntrepreneurID {
			continue
		}
		if filter.AllyID != "" && rel.AllyID != filter.AllyID {
			continue
		}
		if filter.ClientID != "" && rel.ClientID != filter.ClientID {
			continue
		}
		if filter.ParticipantID != "" && !rel.IsParticipant(filter.ParticipantID) {
			continue
		}
		if filter.Status != "" && rel.Status != filter.Status {
			continue
		}
		matched = append(matched, rel)
	}
	return matched, nil
}

func (repo *relationshipRepository) UpdateRelationship(ctx context.Context, rel relationship.Relationship) (relationship.Relationship, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.relationships[rel.ID]; !ok {
		return relationship.Relationship{}, relationship.ErrNotFound
	}
	repo.db.relationships[rel.ID] = &rel
	return rel, nil
}

func (repo *relationshipRepository) HasOpenRelationship(ctx context.Context, entrepreneurID, allyID string) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, rel := range repo.db.relationships {
		if rel.EntrepreneurID == entrepreneurID && rel.AllyID == allyID && !rel.IsEnded() {
			return true, nil
		}
	}
	return false, nil
}

func (repo *relationshipRepository) CreateHourEntry(ctx context.Context, entry relationship.HourEntry) (relationship.HourEntry, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	repo.db.hourEntries[entry.ID] = &entry
	return entry, nil
}

func (repo *relationshipRepository) GetHourEntryByID(ctx context.Context, id string) (relationship.HourEntry, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if entry, ok := repo.db.hourEntries[id]; ok {
		return *entry, nil
	}
	return relationship.HourEntry{}, relationship.ErrEntryNotFound
}

func (repo *relationshipRepository) QueryHourEntries(ctx context.Context, filter *relationship.HoursFilter, ordering []core.DBOrdering) ([]relationship.HourEntry, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	entries := make([]relationship.HourEntry, 0, len(repo.db.hourEntries))
	for _, entry := range repo.db.hourEntries {
		if filter != nil {
			if filter.RelationshipID != "" && entry.RelationshipID != filter.RelationshipID {
				continue
			}
			if filter.AllyID != "" && entry.AllyID != filter.AllyID {
				continue
			}
			if filter.Confirmed != nil && entry.Confirmed != *filter.Confirmed {
				continue
			}
			if !filter.DateFrom.IsZero() && entry.Date.Before(filter.DateFrom) {
				continue
			}
			if !filter.DateTo.IsZero() && entry.Date.After(filter.DateTo) {
				continue
			}
		}
		entries = append(entries, *entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Date.After(entries[j].Date) })
	return entries, nil
}

func (repo *relationshipRepository) UpdateHourEntry(ctx context.Context, entry relationship.HourEntry) (relationship.HourEntry, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.hourEntries[entry.ID]; !ok {
		return relationship.HourEntry{}, relationship.ErrEntryNotFound
	}
	repo.db.hourEntries[entry.ID] = &entry
	return entry, nil
}

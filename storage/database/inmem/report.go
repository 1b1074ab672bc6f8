package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/lazoapp/lazo/core/meeting"
	"github.com/lazoapp/lazo/core/relationship"
	"github.com/lazoapp/lazo/core/report"
	"github.com/lazoapp/lazo/core/task"
)

type reportRepository struct {
	db *DB
}

var _ report.Repository = (*reportRepository)(nil)

func NewReportRepository(db *DB) *reportRepository {
	return &reportRepository{db: db}
}

func (repo *reportRepository) scoped(filter report.Filter) []relationship.Relationship {
	rels := make([]relationship.Relationship, 0, len(repo.db.relationships))
	for _, rel := range repo.db.relationships {
		if filter.ClientID != "" && rel.ClientID != filter.ClientID {
			continue
		}
		if filter.AllyID != "" && rel.AllyID != filter.AllyID {
			continue
		}
		if filter.EntrepreneurID != "" && rel.EntrepreneurID != filter.EntrepreneurID {
			continue
		}
		rels = append(rels, *rel)
	}
	sort.Slice(rels, func(i, j int) bool { return rels[i].CreatedAt.After(rels[j].CreatedAt) })
	return rels
}

func inWindow(t time.Time, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && t.After(to) {
		return false
	}
	return true
}

func (repo *reportRepository) impactOf(rel relationship.Relationship, filter report.Filter) report.Impact {
	imp := report.Impact{
		RelationshipID: rel.ID,
		Status:         rel.Status,
	}
	if usr, ok := repo.db.users[rel.EntrepreneurID]; ok {
		imp.EntrepreneurName = usr.Name
	}
	if usr, ok := repo.db.users[rel.AllyID]; ok {
		imp.AllyName = usr.Name
	}

	for _, entry := range repo.db.hourEntries {
		if entry.RelationshipID != rel.ID || !inWindow(entry.Date, filter.From, filter.To) {
			continue
		}
		if entry.Confirmed {
			imp.ConfirmedHours += entry.Hours
		} else {
			imp.PendingHours += entry.Hours
		}
	}
	for _, m := range repo.db.meetings {
		if m.RelationshipID == rel.ID && m.Status == meeting.StatusCompleted && inWindow(m.StartsAt, filter.From, filter.To) {
			imp.MeetingsHeld++
		}
	}
	for _, t := range repo.db.tasks {
		if t.RelationshipID != rel.ID {
			continue
		}
		if t.Status == task.StatusDone {
			if inWindow(t.UpdatedAt, filter.From, filter.To) {
				imp.TasksDone++
			}
		} else {
			imp.TasksOpen++
		}
	}
	for _, doc := range repo.db.documents {
		if doc.RelationshipID == rel.ID && inWindow(doc.CreatedAt, filter.From, filter.To) {
			imp.Documents++
		}
	}
	return imp
}

func (repo *reportRepository) QueryImpact(ctx context.Context, filter report.Filter) ([]report.Impact, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	rels := repo.scoped(filter)
	impacts := make([]report.Impact, 0, len(rels))
	for _, rel := range rels {
		impacts = append(impacts, repo.impactOf(rel, filter))
	}
	return impacts, nil
}

func (repo *reportRepository) QuerySummary(ctx context.Context, filter report.Filter) (report.Summary, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	summary := report.Summary{GeneratedAt: time.Now().UTC()}
	for _, rel := range repo.scoped(filter) {
		summary.Relationships++
		if rel.Status == relationship.StatusActive {
			summary.ActiveRelationships++
		}
		imp := repo.impactOf(rel, filter)
		summary.ConfirmedHours += imp.ConfirmedHours
		summary.MeetingsHeld += imp.MeetingsHeld
		summary.TasksDone += imp.TasksDone
	}
	return summary, nil
}

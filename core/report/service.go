package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lazoapp/lazo/core/user"
)

// ErrForbidden is returned when a user requests metrics outside their scope.
var ErrForbidden = errors.New("not allowed to view these metrics")

type (
	Repository interface {
		QueryImpact(ctx context.Context, filter Filter) ([]Impact, error)
		QuerySummary(ctx context.Context, filter Filter) (Summary, error)
	}

	Service interface {
		// Impact returns per-relationship aggregates, scoped to what the actor may see.
		Impact(ctx context.Context, actor user.User, filter Filter) ([]Impact, error)
		Summary(ctx context.Context, actor user.User, filter Filter) (Summary, error)
		// Export renders the impact report as an Excel workbook.
		Export(ctx context.Context, actor user.User, filter Filter) (*bytes.Buffer, string, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// scope restricts the filter to the actor's own data: clients see only their
// sponsored relationships, allies and entrepreneurs only their own; admins
// see everything.
func (svc *service) scope(actor user.User, filter Filter) (Filter, error) {
	switch {
	case actor.IsAdmin():
		return filter, nil
	case actor.IsClient():
		if filter.ClientID != "" && filter.ClientID != actor.ID {
			return Filter{}, ErrForbidden
		}
		filter.ClientID = actor.ID
	case actor.IsAlly():
		if filter.AllyID != "" && filter.AllyID != actor.ID {
			return Filter{}, ErrForbidden
		}
		filter.AllyID = actor.ID
	case actor.IsEntrepreneur():
		if filter.EntrepreneurID != "" && filter.EntrepreneurID != actor.ID {
			return Filter{}, ErrForbidden
		}
		filter.EntrepreneurID = actor.ID
	default:
		return Filter{}, ErrForbidden
	}
	return filter, nil
}

func (svc *service) Impact(ctx context.Context, actor user.User, filter Filter) ([]Impact, error) {
	filter, err := svc.scope(actor, filter)
	if err != nil {
		return nil, err
	}
	return svc.repo.QueryImpact(ctx, filter)
}

func (svc *service) Summary(ctx context.Context, actor user.User, filter Filter) (Summary, error) {
	filter, err := svc.scope(actor, filter)
	if err != nil {
		return Summary{}, err
	}
	return svc.repo.QuerySummary(ctx, filter)
}

func (svc *service) Export(ctx context.Context, actor user.User, filter Filter) (*bytes.Buffer, string, error) {
	filter, err := svc.scope(actor, filter)
	if err != nil {
		return nil, "", err
	}

	impacts, err := svc.repo.QueryImpact(ctx, filter)
	if err != nil {
		return nil, "", err
	}
	summary, err := svc.repo.QuerySummary(ctx, filter)
	if err != nil {
		return nil, "", err
	}

	buff, err := renderWorkbook(summary, impacts)
	if err != nil {
		return nil, "", err
	}
	filename := fmt.Sprintf("impact-report-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	return buff, filename, nil
}

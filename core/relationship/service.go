package relationship

import (
	"context"
	"errors"
	"time"

	"github.com/lazoapp/lazo/core"
	"github.com/lazoapp/lazo/core/user"
)

var (
	// errors
	ErrNotFound          = errors.New("relationship not found")
	ErrEntryNotFound     = errors.New("hour entry not found")
	ErrPairExists        = errors.New("an open relationship between this entrepreneur and ally already exists")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrRelationshipEnded = errors.New("relationship has ended")
	ErrNotParticipant    = errors.New("user is not a participant of this relationship")
	ErrOwnEntry          = errors.New("allies cannot confirm their own hour entries")
	ErrEntryConfirmed    = errors.New("hour entry is already confirmed")

	errNotEntrepreneur = errors.New("user does not hold the entrepreneur role")
	errNotAlly         = errors.New("user does not hold the ally role")
	errNotClient       = errors.New("user does not hold the client role")
	errInactiveUser    = errors.New("user account is deactivated")
)

type (
	Repository interface {
		CreateRelationship(ctx context.Context, rel Relationship) (Relationship, error)
		GetRelationshipByID(ctx context.Context, id string) (Relationship, error)
		// QueryRelationships applies AND operation on available QueryFilter fields;
		// ParticipantID matches either side of the pair.
		QueryRelationships(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Relationship, error)
		UpdateRelationship(ctx context.Context, rel Relationship) (Relationship, error)
		// HasOpenRelationship reports whether a non-ended relationship exists for the pair.
		HasOpenRelationship(ctx context.Context, entrepreneurID, allyID string) (bool, error)

		CreateHourEntry(ctx context.Context, entry HourEntry) (HourEntry, error)
		GetHourEntryByID(ctx context.Context, id string) (HourEntry, error)
		QueryHourEntries(ctx context.Context, filter *HoursFilter, ordering []core.DBOrdering) ([]HourEntry, error)
		UpdateHourEntry(ctx context.Context, entry HourEntry) (HourEntry, error)
	}

	Service interface {
		Create(ctx context.Context, nr NewRelationship) (Relationship, error)
		GetByID(ctx context.Context, id string) (Relationship, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Relationship, error)
		Activate(ctx context.Context, id string) (Relationship, error)
		Pause(ctx context.Context, id string) (Relationship, error)
		End(ctx context.Context, id string) (Relationship, error)

		LogHours(ctx context.Context, ally user.User, relationshipID string, nh NewHourEntry) (HourEntry, error)
		ConfirmHours(ctx context.Context, entrepreneur user.User, entryID string) (HourEntry, error)
		QueryHours(ctx context.Context, filter *HoursFilter, ordering []core.DBOrdering) ([]HourEntry, error)
	}

	service struct {
		repo   Repository
		usrSvc user.Service
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, usrSvc user.Service) Service {
	return &service{repo: repo, usrSvc: usrSvc}
}

// checkParticipant verifies that the user exists, is active and holds the wanted role.
func (svc *service) checkParticipant(ctx context.Context, id string, wantRole string) error {
	usr, err := svc.usrSvc.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !usr.Active() {
		return errInactiveUser
	}
	var roleErr error
	switch wantRole {
	case user.RoleEntrepreneur:
		if !usr.IsEntrepreneur() {
			roleErr = errNotEntrepreneur
		}
	case user.RoleAlly:
		if !usr.IsAlly() {
			roleErr = errNotAlly
		}
	case user.RoleClient:
		if !usr.IsClient() {
			roleErr = errNotClient
		}
	}
	return roleErr
}

func (svc *service) Create(ctx context.Context, nr NewRelationship) (Relationship, error) {
	if err := svc.checkParticipant(ctx, nr.EntrepreneurID, user.RoleEntrepreneur); err != nil {
		return Relationship{}, svc.fieldErr("entrepreneur_id", err)
	}
	if err := svc.checkParticipant(ctx, nr.AllyID, user.RoleAlly); err != nil {
		return Relationship{}, svc.fieldErr("ally_id", err)
	}
	if nr.ClientID != "" {
		if err := svc.checkParticipant(ctx, nr.ClientID, user.RoleClient); err != nil {
			return Relationship{}, svc.fieldErr("client_id", err)
		}
	}

	open, err := svc.repo.HasOpenRelationship(ctx, nr.EntrepreneurID, nr.AllyID)
	if err != nil {
		return Relationship{}, err
	}
	if open {
		return Relationship{}, core.NewValidationError(ErrPairExists)
	}

	now := time.Now().UTC()
	rel := Relationship{
		EntrepreneurID: nr.EntrepreneurID,
		AllyID:         nr.AllyID,
		ClientID:       nr.ClientID,
		Goal:           nr.Goal,
		Status:         StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	return svc.repo.CreateRelationship(ctx, rel)
}

func (svc *service) fieldErr(field string, err error) error {
	switch err {
	case user.ErrNotFound, errNotEntrepreneur, errNotAlly, errNotClient, errInactiveUser:
		return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return err
}

func (svc *service) GetByID(ctx context.Context, id string) (Relationship, error) {
	return svc.repo.GetRelationshipByID(ctx, id)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Relationship, error) {
	return svc.repo.QueryRelationships(ctx, filter, ordering)
}

func (svc *service) transition(ctx context.Context, id, to string) (Relationship, error) {
	rel, err := svc.repo.GetRelationshipByID(ctx, id)
	if err != nil {
		return Relationship{}, err
	}
	if !canTransition(rel.Status, to) {
		return Relationship{}, core.NewValidationError(ErrInvalidTransition, core.FieldError{
			Field: "status", Error: rel.Status + " -> " + to + " is not allowed",
		})
	}

	now := time.Now().UTC()
	rel.Status = to
	rel.UpdatedAt = now
	switch to {
	case StatusActive:
		if rel.StartedAt.IsZero() {
			rel.StartedAt = now
		}
	case StatusEnded:
		rel.EndedAt = now
	}
	return svc.repo.UpdateRelationship(ctx, rel)
}

func (svc *service) Activate(ctx context.Context, id string) (Relationship, error) {
	return svc.transition(ctx, id, StatusActive)
}

func (svc *service) Pause(ctx context.Context, id string) (Relationship, error) {
	return svc.transition(ctx, id, StatusPaused)
}

func (svc *service) End(ctx context.Context, id string) (Relationship, error) {
	return svc.transition(ctx, id, StatusEnded)
}

func (svc *service) LogHours(ctx context.Context, ally user.User, relationshipID string, nh NewHourEntry) (HourEntry, error) {
	rel, err := svc.repo.GetRelationshipByID(ctx, relationshipID)
	if err != nil {
		return HourEntry{}, err
	}
	if rel.AllyID != ally.ID {
		return HourEntry{}, ErrNotParticipant
	}
	if rel.IsEnded() {
		return HourEntry{}, core.NewValidationError(ErrRelationshipEnded)
	}

	entry := HourEntry{
		RelationshipID: rel.ID,
		AllyID:         ally.ID,
		Date:           nh.Date,
		Hours:          nh.Hours,
		Note:           nh.Note,
		CreatedAt:      time.Now().UTC(),
	}
	return svc.repo.CreateHourEntry(ctx, entry)
}

func (svc *service) ConfirmHours(ctx context.Context, entrepreneur user.User, entryID string) (HourEntry, error) {
	entry, err := svc.repo.GetHourEntryByID(ctx, entryID)
	if err != nil {
		return HourEntry{}, err
	}
	rel, err := svc.repo.GetRelationshipByID(ctx, entry.RelationshipID)
	if err != nil {
		return HourEntry{}, err
	}
	if entrepreneur.ID == entry.AllyID {
		return HourEntry{}, ErrOwnEntry
	}
	if rel.EntrepreneurID != entrepreneur.ID {
		return HourEntry{}, ErrNotParticipant
	}
	if entry.Confirmed {
		return HourEntry{}, core.NewValidationError(ErrEntryConfirmed)
	}

	entry.Confirmed = true
	entry.ConfirmedAt = time.Now().UTC()
	return svc.repo.UpdateHourEntry(ctx, entry)
}

func (svc *service) QueryHours(ctx context.Context, filter *HoursFilter, ordering []core.DBOrdering) ([]HourEntry, error) {
	return svc.repo.QueryHourEntries(ctx, filter, ordering)
}

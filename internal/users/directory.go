package users

import (
	"context"

	"github.com/google/uuid"

	pkgdb "github.com/angelmondragon/shelfwatch-backend/pkg/db"
	pkgerrors "github.com/angelmondragon/shelfwatch-backend/pkg/errors"
)

// SystemActor is the display name recorded when no user triggered an action.
const SystemActor = "system"

// Actor identifies who performed an action.
type Actor struct {
	ID   *uuid.UUID
	Name string
}

// Directory resolves user ids to display names and alert targets.
type Directory struct {
	repo *Repository
}

func NewDirectory(repo *Repository) *Directory {
	return &Directory{repo: repo}
}

// ResolveActor maps an optional user id to an Actor. A nil id yields the system actor;
// an unknown id is NOT_FOUND.
func (d *Directory) ResolveActor(ctx context.Context, id *uuid.UUID) (Actor, error) {
	if id == nil || *id == uuid.Nil {
		return Actor{Name: SystemActor}, nil
	}
	user, err := d.repo.FindByID(ctx, *id)
	if err != nil {
		if pkgdb.IsNotFound(err) {
			return Actor{}, pkgerrors.Newf(pkgerrors.CodeNotFound, "user %s not found", id)
		}
		return Actor{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve actor")
	}
	resolved := user.ID
	return Actor{ID: &resolved, Name: user.Name}, nil
}

// ActiveUserIDs returns the ids of every active user.
func (d *Directory) ActiveUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	users, err := d.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list active users")
	}
	ids := make([]uuid.UUID, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids, nil
}

// FilterActive keeps the ids of active users, preserving none of the unknown ones.
func (d *Directory) FilterActive(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	users, err := d.repo.FindActiveByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load target users")
	}
	out := make([]uuid.UUID, 0, len(users))
	for _, u := range users {
		out = append(out, u.ID)
	}
	return out, nil
}

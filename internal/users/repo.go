package users

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/shelfwatch-backend/internal/repo"
	pkgdb "github.com/angelmondragon/shelfwatch-backend/pkg/db"
	"github.com/angelmondragon/shelfwatch-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shelfwatch-backend/pkg/errors"
)

// NewUser is a directory entry to insert. IsActive defaults to true.
type NewUser struct {
	Name     string
	Email    string
	IsActive *bool
}

// Repository reads the user directory. Users are provisioned outside Shelfwatch; Create
// exists for seeding.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Create inserts u with a normalized email. A taken email is CONFLICT.
func (r *Repository) Create(ctx context.Context, u NewUser) (*models.User, error) {
	active := u.IsActive == nil || *u.IsActive
	user := &models.User{
		Name:     strings.TrimSpace(u.Name),
		Email:    strings.ToLower(strings.TrimSpace(u.Email)),
		IsActive: active,
	}
	if err := r.DB(ctx).Create(user).Error; err != nil {
		if pkgdb.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Newf(pkgerrors.CodeConflict, "email %s is already registered", user.Email)
		}
		return nil, err
	}
	return user, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return repo.First[models.User](r.DB(ctx), "id = ?", id)
}

// FindActiveByIDs returns the active users among ids ordered by name. Unknown ids are
// dropped.
func (r *Repository) FindActiveByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.active(ctx, r.DB(ctx).Where("id IN ?", ids))
}

func (r *Repository) ListActive(ctx context.Context) ([]models.User, error) {
	return r.active(ctx, r.DB(ctx))
}

func (r *Repository) active(_ context.Context, q *gorm.DB) ([]models.User, error) {
	var found []models.User
	if err := q.Where("is_active = ?", true).Order("name ASC").Find(&found).Error; err != nil {
		return nil, err
	}
	return found, nil
}

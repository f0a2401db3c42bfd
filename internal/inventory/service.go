package inventory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"gorm.io/gorm"

	"github.com/angelmondragon/shelfwatch-backend/internal/expiry"
	"github.com/angelmondragon/shelfwatch-backend/internal/users"
	"github.com/angelmondragon/shelfwatch-backend/pkg/cache"
	"github.com/angelmondragon/shelfwatch-backend/pkg/clock"
	pkgdb "github.com/angelmondragon/shelfwatch-backend/pkg/db"
	"github.com/angelmondragon/shelfwatch-backend/pkg/db/models"
	"github.com/angelmondragon/shelfwatch-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shelfwatch-backend/pkg/errors"
	"github.com/angelmondragon/shelfwatch-backend/pkg/logger"
	"github.com/angelmondragon/shelfwatch-backend/pkg/metrics"
	"github.com/angelmondragon/shelfwatch-backend/pkg/pagination"
)

const (
	filterOptionsCacheKey   = "inventory:filter-options"
	defaultFilterOptionsTTL = 5 * time.Minute
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ActorResolver maps an optional user id to the name recorded on inspections.
type ActorResolver interface {
	ResolveActor(ctx context.Context, id *uuid.UUID) (users.Actor, error)
}

// ReportRenderer turns a titled view list into a downloadable document.
type ReportRenderer interface {
	Render(ctx context.Context, title string, rows []View) ([]byte, error)
	ContentType() string
	Extension() string
}

// Service exposes the classified inventory read model and its mutations.
type Service interface {
	Query(ctx context.Context, q Query) (*QueryResult, error)
	Count(ctx context.Context, f Filter) (int64, error)
	PageCount(ctx context.Context, f Filter, size int) (int64, error)
	ListBucket(ctx context.Context, bucket enums.ExpiryBucket, s Sort) ([]View, error)
	FilterOptions(ctx context.Context) (*FilterOptions, error)
	Report(ctx context.Context, q Query, format enums.ReportFormat) (*Report, error)
	Receive(ctx context.Context, input ReceiveInput) (*View, error)
	Remove(ctx context.Context, id uuid.UUID) error
	Inspect(ctx context.Context, input InspectInput) (*View, error)
	InspectBatch(ctx context.Context, input BatchInspectInput) ([]View, error)
	DueProducts(ctx context.Context, now time.Time) (DueProducts, error)
}

// QueryResult is one page of views plus the totals for the unpaged filter.
type QueryResult struct {
	Items     []View    `json:"items"`
	Total     int       `json:"total"`
	Page      int       `json:"page,omitempty"`
	Size      int       `json:"size,omitempty"`
	PageCount int64     `json:"page_count,omitempty"`
	AsOf      time.Time `json:"as_of"`
}

// FilterOptions lists the distinct values available to filter UIs.
type FilterOptions struct {
	Brands     []string `json:"brands"`
	Aisles     []string `json:"aisles"`
	Categories []string `json:"categories"`
	Suppliers  []string `json:"suppliers"`
	Lots       []string `json:"lots"`
	Inspectors []string `json:"inspectors"`
}

// Report is a rendered export.
type Report struct {
	Title       string
	Filename    string
	ContentType string
	Body        []byte
	Rows        int
}

// ReceiveInput registers a newly received lot.
type ReceiveInput struct {
	ProductID      uuid.UUID       `json:"product_id" validate:"required"`
	Lot            string          `json:"lot" validate:"max=64"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	ManufacturedAt *time.Time      `json:"manufactured_at" validate:"required"`
	ExpiresAt      *time.Time      `json:"expires_at" validate:"required"`
	ReceivedAt     *time.Time      `json:"received_at"`
}

// DueProducts groups product ids by the automatic alert kind they qualify for.
type DueProducts map[enums.AlertKind][]uuid.UUID

// ServiceParams wires the inventory service.
type ServiceParams struct {
	Repo             Repository
	Tx               txRunner
	Actors           ActorResolver
	Clock            clock.Clock
	Classifier       expiry.Classifier
	Cache            cache.Cache
	FilterOptionsTTL time.Duration
	Renderers        map[enums.ReportFormat]ReportRenderer
	Logger           *logger.Logger
	Metrics          *metrics.DomainMetrics
}

type service struct {
	repo       Repository
	tx         txRunner
	actors     ActorResolver
	clock      clock.Clock
	classifier expiry.Classifier
	cache      cache.Cache
	optionsTTL time.Duration
	renderers  map[enums.ReportFormat]ReportRenderer
	logg       *logger.Logger
	metrics    *metrics.DomainMetrics
}

// NewService validates dependencies and builds the inventory service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Actors == nil {
		return nil, fmt.Errorf("actor resolver required")
	}
	if params.Clock == nil {
		params.Clock = clock.NewSystem(time.UTC)
	}
	if params.Cache == nil {
		params.Cache = cache.Noop{}
	}
	if params.FilterOptionsTTL <= 0 {
		params.FilterOptionsTTL = defaultFilterOptionsTTL
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	return &service{
		repo:       params.Repo,
		tx:         params.Tx,
		actors:     params.Actors,
		clock:      params.Clock,
		classifier: params.Classifier,
		cache:      params.Cache,
		optionsTTL: params.FilterOptionsTTL,
		renderers:  params.Renderers,
		logg:       params.Logger,
		metrics:    params.Metrics,
	}, nil
}

// views loads the full collection classified against a single instant.
func (s *service) views(ctx context.Context) ([]View, time.Time, error) {
	now := s.clock.Now()
	items, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, now, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list inventory items")
	}
	return BuildViews(items, s.classifier, now), now, nil
}

func (s *service) Query(ctx context.Context, q Query) (*QueryResult, error) {
	all, now, err := s.views(ctx)
	if err != nil {
		return nil, err
	}
	items, total := Run(all, q)
	result := &QueryResult{Items: items, Total: total, AsOf: now}
	if q.Page.HasPagination() {
		result.Page = q.Page.Number
		result.Size = q.Page.Size
		result.PageCount = pagination.PageCount(int64(total), q.Page.Size)
	}
	return result, nil
}

func (s *service) Count(ctx context.Context, f Filter) (int64, error) {
	all, _, err := s.views(ctx)
	if err != nil {
		return 0, err
	}
	_, total := Run(all, Query{Filter: f})
	return int64(total), nil
}

func (s *service) PageCount(ctx context.Context, f Filter, size int) (int64, error) {
	if size <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "page size must be positive")
	}
	count, err := s.Count(ctx, f)
	if err != nil {
		return 0, err
	}
	return pagination.PageCount(count, size), nil
}

func (s *service) ListBucket(ctx context.Context, bucket enums.ExpiryBucket, sortBy Sort) ([]View, error) {
	if !bucket.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid bucket %q", bucket)
	}
	all, _, err := s.views(ctx)
	if err != nil {
		return nil, err
	}
	items, _ := Run(all, Query{Filter: Filter{Bucket: bucket}, Sort: sortBy})
	return items, nil
}

func (s *service) FilterOptions(ctx context.Context) (*FilterOptions, error) {
	var cached FilterOptions
	hit, err := s.cache.Get(ctx, filterOptionsCacheKey, &cached)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "filter options cache read failed")
	}
	if hit {
		return &cached, nil
	}

	all, _, err := s.views(ctx)
	if err != nil {
		return nil, err
	}
	opts := buildFilterOptions(all)
	if err := s.cache.Set(ctx, filterOptionsCacheKey, opts, s.optionsTTL); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "filter options cache write failed")
	}
	return opts, nil
}

func buildFilterOptions(views []View) *FilterOptions {
	brands := newDistinct()
	aisles := newDistinct()
	categories := newDistinct()
	suppliers := newDistinct()
	lots := newDistinct()
	inspectors := newDistinct()
	for _, v := range views {
		brands.add(v.Brand)
		aisles.add(v.Aisle)
		categories.add(v.Category)
		suppliers.add(v.Supplier)
		lots.add(v.Lot)
		if v.Inspected {
			inspectors.add(v.InspectedBy)
		}
	}
	return &FilterOptions{
		Brands:     brands.values(),
		Aisles:     aisles.values(),
		Categories: categories.values(),
		Suppliers:  suppliers.values(),
		Lots:       lots.values(),
		Inspectors: inspectors.values(),
	}
}

// distinct collects non-empty values, deduplicated case-insensitively, first spelling wins.
type distinct struct {
	fold cases.Caser
	seen map[string]struct{}
	out  []string
}

func newDistinct() *distinct {
	return &distinct{fold: cases.Fold(), seen: map[string]struct{}{}, out: []string{}}
}

func (d *distinct) add(value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	key := d.fold.String(value)
	if _, ok := d.seen[key]; ok {
		return
	}
	d.seen[key] = struct{}{}
	d.out = append(d.out, value)
}

func (d *distinct) values() []string {
	slices.SortFunc(d.out, func(a, b string) int {
		return strings.Compare(d.fold.String(a), d.fold.String(b))
	})
	return d.out
}

func (s *service) invalidateFilterOptions(ctx context.Context) {
	if err := s.cache.Delete(ctx, filterOptionsCacheKey); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "filter options cache invalidation failed")
	}
}

func (s *service) Receive(ctx context.Context, input ReceiveInput) (*View, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if input.UnitPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price cannot be negative")
	}
	if input.ManufacturedAt == nil || input.ExpiresAt == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "manufacture and expiration dates required")
	}
	if input.ExpiresAt.Before(*input.ManufacturedAt) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "expiration precedes manufacture date")
	}

	now := s.clock.Now()
	received := now
	if input.ReceivedAt != nil {
		received = *input.ReceivedAt
	}
	item := &models.InventoryItem{
		ProductID:      input.ProductID,
		Lot:            strings.TrimSpace(input.Lot),
		UnitPrice:      input.UnitPrice.Round(2),
		ManufacturedAt: input.ManufacturedAt,
		ExpiresAt:      input.ExpiresAt,
		ReceivedAt:     &received,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		exists, err := repo.ProductExists(ctx, input.ProductID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		if !exists {
			return pkgerrors.Newf(pkgerrors.CodeNotFound, "product %s not found", input.ProductID)
		}
		if err := repo.Create(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create inventory item")
		}
		if err := repo.AdjustProductQuantity(ctx, input.ProductID, 1); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment product quantity")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidateFilterOptions(ctx)

	stored, err := s.repo.FindByID(ctx, item.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload inventory item")
	}
	view := BuildView(*stored, s.classifier, now)
	return &view, nil
}

func (s *service) Remove(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		removed, err := repo.Delete(ctx, id)
		if err != nil {
			if pkgdb.IsNotFound(err) {
				return pkgerrors.Newf(pkgerrors.CodeNotFound, "inventory item %s not found", id)
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete inventory item")
		}
		if err := repo.AdjustProductQuantity(ctx, removed.ProductID, -1); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement product quantity")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.invalidateFilterOptions(ctx)
	return nil
}

// DueProducts lists the uninspected products with lots overdue, due today or due tomorrow,
// relative to now's calendar day.
func (s *service) DueProducts(ctx context.Context, now time.Time) (DueProducts, error) {
	items, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list inventory items")
	}
	tomorrow := now.AddDate(0, 0, 1)
	due := DueProducts{}
	seen := map[enums.AlertKind]map[uuid.UUID]struct{}{}
	add := func(kind enums.AlertKind, productID uuid.UUID) {
		if seen[kind] == nil {
			seen[kind] = map[uuid.UUID]struct{}{}
		}
		if _, ok := seen[kind][productID]; ok {
			return
		}
		seen[kind][productID] = struct{}{}
		due[kind] = append(due[kind], productID)
	}
	for _, item := range items {
		if item.Inspected || item.ExpiresAt == nil {
			continue
		}
		switch exp := *item.ExpiresAt; {
		case exp.Before(now):
			add(enums.AlertKindOverdue, item.ProductID)
		case expiry.SameDay(exp, now):
			add(enums.AlertKindDueToday, item.ProductID)
		case expiry.SameDay(exp, tomorrow):
			add(enums.AlertKindDueTomorrow, item.ProductID)
		}
	}
	return due, nil
}

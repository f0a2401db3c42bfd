package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/shelfwatch-backend/internal/expiry"
	"github.com/angelmondragon/shelfwatch-backend/internal/users"
	"github.com/angelmondragon/shelfwatch-backend/pkg/cache"
	"github.com/angelmondragon/shelfwatch-backend/pkg/clock"
	"github.com/angelmondragon/shelfwatch-backend/pkg/db/dbtest"
	"github.com/angelmondragon/shelfwatch-backend/pkg/db/models"
	"github.com/angelmondragon/shelfwatch-backend/pkg/enums"
)

var testNow = time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

type fixture struct {
	t       *testing.T
	db      *gorm.DB
	clock   *clock.Manual
	cache   *cache.Memory
	svc     Service
	users   *users.Repository
	product *models.Product
}

type fakeRenderer struct {
	title string
	rows  []View
}

func (f *fakeRenderer) Render(_ context.Context, title string, rows []View) ([]byte, error) {
	f.title = title
	f.rows = rows
	return []byte("report"), nil
}

func (f *fakeRenderer) ContentType() string { return "text/plain" }
func (f *fakeRenderer) Extension() string   { return "txt" }

func newFixture(t *testing.T, renderers map[enums.ReportFormat]ReportRenderer) *fixture {
	t.Helper()
	client := dbtest.Client(t)
	clk := clock.NewManual(testNow)
	mem := cache.NewMemory(clk)
	userRepo := users.NewRepository(client.DB())

	svc, err := NewService(ServiceParams{
		Repo:       NewRepository(client.DB()),
		Tx:         client,
		Actors:     users.NewDirectory(userRepo),
		Clock:      clk,
		Classifier: expiry.NewClassifier(15),
		Cache:      mem,
		Renderers:  renderers,
	})
	require.NoError(t, err)

	f := &fixture{t: t, db: client.DB(), clock: clk, cache: mem, svc: svc, users: userRepo}
	f.product = f.seedProduct("Leite Integral", "Acme", "7890001", "Laticínios", "A1", "Fornecedor Sul")
	return f
}

func (f *fixture) seedProduct(description, brand, barcode, category, aisle, supplier string) *models.Product {
	f.t.Helper()
	product := &models.Product{Description: description, Brand: brand, Barcode: barcode, Unit: "un"}
	if category != "" {
		cat := &models.Category{Name: category}
		if aisle != "" {
			a := &models.Aisle{Name: aisle}
			require.NoError(f.t, f.db.Create(a).Error)
			cat.AisleID = &a.ID
		}
		require.NoError(f.t, f.db.Create(cat).Error)
		product.CategoryID = &cat.ID
	}
	if supplier != "" {
		s := models.Supplier{Name: supplier}
		require.NoError(f.t, f.db.Create(&s).Error)
		product.Suppliers = []models.Supplier{s}
	}
	require.NoError(f.t, f.db.Create(product).Error)
	return product
}

func (f *fixture) seedItem(product *models.Product, lot string, expires *time.Time) *models.InventoryItem {
	f.t.Helper()
	item := &models.InventoryItem{
		ProductID: product.ID,
		Lot:       lot,
		UnitPrice: decimal.RequireFromString("4.99"),
		ExpiresAt: expires,
	}
	require.NoError(f.t, f.db.Create(item).Error)
	return item
}

func (f *fixture) seedUser(name string) *models.User {
	f.t.Helper()
	user, err := f.users.Create(context.Background(), users.NewUser{Name: name, Email: uuid.NewString() + "@example.com"})
	require.NoError(f.t, err)
	return user
}

func at(t time.Time) *time.Time {
	return &t
}

func boolPtr(b bool) *bool {
	return &b
}

package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/shelfwatch-backend/internal/inventory"
	"github.com/angelmondragon/shelfwatch-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shelfwatch-backend/pkg/errors"
)

type fakeInventoryService struct {
	query        inventory.Query
	filter       inventory.Filter
	size         int
	bucket       enums.ExpiryBucket
	sort         inventory.Sort
	format       enums.ReportFormat
	received     inventory.ReceiveInput
	removed      uuid.UUID
	inspect      inventory.InspectInput
	batch        inventory.BatchInspectInput
	err          error
	batchResults []inventory.View
}

func (f *fakeInventoryService) Query(_ context.Context, q inventory.Query) (*inventory.QueryResult, error) {
	f.query = q
	return &inventory.QueryResult{Items: []inventory.View{}, Total: 0}, f.err
}

func (f *fakeInventoryService) Count(_ context.Context, filter inventory.Filter) (int64, error) {
	f.filter = filter
	return 7, f.err
}

func (f *fakeInventoryService) PageCount(_ context.Context, filter inventory.Filter, size int) (int64, error) {
	f.filter, f.size = filter, size
	return 3, f.err
}

func (f *fakeInventoryService) ListBucket(_ context.Context, bucket enums.ExpiryBucket, s inventory.Sort) ([]inventory.View, error) {
	f.bucket, f.sort = bucket, s
	return []inventory.View{}, f.err
}

func (f *fakeInventoryService) FilterOptions(context.Context) (*inventory.FilterOptions, error) {
	return &inventory.FilterOptions{Brands: []string{"Acme"}}, f.err
}

func (f *fakeInventoryService) Report(_ context.Context, q inventory.Query, format enums.ReportFormat) (*inventory.Report, error) {
	f.query, f.format = q, format
	if f.err != nil {
		return nil, f.err
	}
	return &inventory.Report{Title: "Expired items", Filename: "expired-items-20260310.pdf", ContentType: "application/pdf", Body: []byte("%PDF")}, nil
}

func (f *fakeInventoryService) Receive(_ context.Context, input inventory.ReceiveInput) (*inventory.View, error) {
	f.received = input
	if f.err != nil {
		return nil, f.err
	}
	return &inventory.View{ItemID: uuid.New(), ProductID: input.ProductID, Lot: input.Lot}, nil
}

func (f *fakeInventoryService) Remove(_ context.Context, id uuid.UUID) error {
	f.removed = id
	return f.err
}

func (f *fakeInventoryService) Inspect(_ context.Context, input inventory.InspectInput) (*inventory.View, error) {
	f.inspect = input
	if f.err != nil {
		return nil, f.err
	}
	return &inventory.View{ItemID: input.ItemID, Inspected: true}, nil
}

func (f *fakeInventoryService) InspectBatch(_ context.Context, input inventory.BatchInspectInput) ([]inventory.View, error) {
	f.batch = input
	return f.batchResults, f.err
}

func (f *fakeInventoryService) DueProducts(context.Context, time.Time) (inventory.DueProducts, error) {
	return inventory.DueProducts{}, nil
}

func TestInventoryListParsesQuery(t *testing.T) {
	svc := &fakeInventoryService{}
	loc := time.FixedZone("UTC-3", -3*3600)
	url := "/api/v1/inventory/items?search=milk&brand=Acme&inspected=false&bucket=hoje" +
		"&expiresFrom=2026-03-10&expiresTo=2026-03-12&sort=expires_at&direction=desc&page=2&size=10"
	req := httptest.NewRequest(http.MethodGet, url, nil)
	resp := httptest.NewRecorder()

	InventoryList(svc, loc, testLogger())(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	f := svc.query.Filter
	assert.Equal(t, "milk", f.Search)
	assert.Equal(t, "Acme", f.Brand)
	require.NotNil(t, f.Inspected)
	assert.False(t, *f.Inspected)
	assert.Equal(t, enums.ExpiryBucketDueToday, f.Bucket)
	require.NotNil(t, f.Expiration.From)
	require.NotNil(t, f.Expiration.To)
	assert.True(t, f.Expiration.From.Equal(time.Date(2026, 3, 10, 0, 0, 0, 0, loc)))
	assert.Equal(t, 12, f.Expiration.To.Day())
	assert.Equal(t, 23, f.Expiration.To.Hour())
	assert.Equal(t, inventory.SortExpiration, svc.query.Sort.Field)
	assert.Equal(t, enums.SortDesc, svc.query.Sort.Direction)
	assert.Equal(t, 2, svc.query.Page.Number)
	assert.Equal(t, 10, svc.query.Page.Size)
}

func TestInventoryListRejectsInvalidQuery(t *testing.T) {
	cases := []string{
		"?inspected=perhaps",
		"?bucket=someday",
		"?expiresFrom=10/03/2026",
		"?direction=sideways",
		"?size=501",
		"?page=x",
	}
	for _, query := range cases {
		svc := &fakeInventoryService{}
		req := httptest.NewRequest(http.MethodGet, "/api/v1/inventory/items"+query, nil)
		resp := httptest.NewRecorder()
		InventoryList(svc, time.UTC, testLogger())(resp, req)
		assert.Equal(t, http.StatusBadRequest, resp.Code, query)
	}
}

func TestInventoryListNonPositivePageIsUnpaged(t *testing.T) {
	for _, query := range []string{"?page=-1&size=10", "?page=2&size=-5", "?page=0&size=0", "?size=10"} {
		svc := &fakeInventoryService{}
		req := httptest.NewRequest(http.MethodGet, "/api/v1/inventory/items"+query, nil)
		resp := httptest.NewRecorder()

		InventoryList(svc, time.UTC, testLogger())(resp, req)

		require.Equal(t, http.StatusOK, resp.Code, query)
		assert.False(t, svc.query.Page.HasPagination(), query)
		assert.GreaterOrEqual(t, svc.query.Page.Number, 0, query)
		assert.GreaterOrEqual(t, svc.query.Page.Size, 0, query)
	}
}

func TestInventoryCountAndPages(t *testing.T) {
	svc := &fakeInventoryService{}

	resp := httptest.NewRecorder()
	InventoryCount(svc, time.UTC, testLogger())(resp, httptest.NewRequest(http.MethodGet, "/api/v1/inventory/items/count?lot=L1", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "L1", svc.filter.Lot)
	assert.JSONEq(t, `{"data":{"count":7}}`, resp.Body.String())

	resp = httptest.NewRecorder()
	InventoryPageCount(svc, time.UTC, testLogger())(resp, httptest.NewRequest(http.MethodGet, "/api/v1/inventory/items/pages?size=20", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, 20, svc.size)
	assert.JSONEq(t, `{"data":{"pages":3,"size":20}}`, resp.Body.String())
}

func TestInventoryPageCountRequiresSize(t *testing.T) {
	resp := httptest.NewRecorder()
	InventoryPageCount(&fakeInventoryService{}, time.UTC, testLogger())(resp, httptest.NewRequest(http.MethodGet, "/api/v1/inventory/items/pages", nil))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestInventoryBucketUsesPathParam(t *testing.T) {
	svc := &fakeInventoryService{}
	req := addRouteParam(httptest.NewRequest(http.MethodGet, "/api/v1/inventory/buckets/vencido?sort=aisle", nil), "bucket", "vencido")
	resp := httptest.NewRecorder()

	InventoryBucket(svc, testLogger())(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, enums.ExpiryBucketExpired, svc.bucket)
	assert.Equal(t, inventory.SortAisle, svc.sort.Field)

	req = addRouteParam(httptest.NewRequest(http.MethodGet, "/api/v1/inventory/buckets/nope", nil), "bucket", "nope")
	resp = httptest.NewRecorder()
	InventoryBucket(svc, testLogger())(resp, req)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestInventoryReportStreamsAttachment(t *testing.T) {
	svc := &fakeInventoryService{}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/inventory/report?format=pdf&bucket=expired", nil)
	resp := httptest.NewRecorder()

	InventoryReport(svc, time.UTC, testLogger())(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, enums.ReportFormatPDF, svc.format)
	assert.Equal(t, enums.ExpiryBucketExpired, svc.query.Filter.Bucket)
	assert.Equal(t, "application/pdf", resp.Header().Get("Content-Type"))
	assert.Contains(t, resp.Header().Get("Content-Disposition"), "expired-items-20260310.pdf")
	assert.Equal(t, "%PDF", resp.Body.String())
}

func TestInventoryReportRejectsUnknownFormat(t *testing.T) {
	resp := httptest.NewRecorder()
	InventoryReport(&fakeInventoryService{}, time.UTC, testLogger())(resp, httptest.NewRequest(http.MethodGet, "/api/v1/inventory/report?format=csv", nil))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestInventoryReceive(t *testing.T) {
	svc := &fakeInventoryService{}
	productID := uuid.New()
	body := `{"product_id":"` + productID.String() + `","lot":"  L-42 ","unit_price":"3.50","manufactured_at":"2026-02-20T00:00:00Z","expires_at":"2026-03-20T00:00:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/inventory/items", strings.NewReader(body))
	resp := httptest.NewRecorder()

	InventoryReceive(svc, testLogger())(resp, req)

	require.Equal(t, http.StatusCreated, resp.Code)
	assert.Equal(t, productID, svc.received.ProductID)
	assert.Equal(t, "L-42", svc.received.Lot)
	assert.Equal(t, "3.5", svc.received.UnitPrice.String())
	require.NotNil(t, svc.received.ExpiresAt)
	require.NotNil(t, svc.received.ManufacturedAt)
}

func TestInventoryReceiveRequiresDates(t *testing.T) {
	svc := &fakeInventoryService{}
	body := `{"product_id":"` + uuid.NewString() + `","lot":"L1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/inventory/items", strings.NewReader(body))
	resp := httptest.NewRecorder()

	InventoryReceive(svc, testLogger())(resp, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "expires_at")
	assert.Contains(t, resp.Body.String(), "manufactured_at")
	assert.Equal(t, uuid.Nil, svc.received.ProductID, "service not reached")
}

func TestInventoryReceiveRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/inventory/items", strings.NewReader(`{"product_id":"`+uuid.NewString()+`","colour":"red"}`))
	resp := httptest.NewRecorder()
	InventoryReceive(&fakeInventoryService{}, testLogger())(resp, req)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestInventoryRemove(t *testing.T) {
	itemID := uuid.New()
	svc := &fakeInventoryService{}
	req := addRouteParam(httptest.NewRequest(http.MethodDelete, "/", nil), "itemId", itemID.String())
	resp := httptest.NewRecorder()

	InventoryRemove(svc, testLogger())(resp, req)

	assert.Equal(t, http.StatusNoContent, resp.Code)
	assert.Equal(t, itemID, svc.removed)

	svc.err = pkgerrors.New(pkgerrors.CodeNotFound, "inventory item not found")
	resp = httptest.NewRecorder()
	InventoryRemove(svc, testLogger())(resp, addRouteParam(httptest.NewRequest(http.MethodDelete, "/", nil), "itemId", itemID.String()))
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestInspectItemPassesActor(t *testing.T) {
	userID := uuid.New()
	itemID := uuid.New()
	svc := &fakeInventoryService{}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"reason":"other","custom_reason":" moved to clearance "}`))
	req = addRouteParam(asUser(req, userID), "itemId", itemID.String())
	resp := httptest.NewRecorder()

	InspectItem(svc, testLogger())(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, itemID, svc.inspect.ItemID)
	assert.Equal(t, "other", svc.inspect.Reason)
	assert.Equal(t, "moved to clearance", svc.inspect.CustomReason)
	require.NotNil(t, svc.inspect.ActorID)
	assert.Equal(t, userID, *svc.inspect.ActorID)
}

func TestInspectItemWithoutUserIsSystem(t *testing.T) {
	svc := &fakeInventoryService{}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"reason":"damage"}`))
	req = addRouteParam(req, "itemId", uuid.NewString())
	resp := httptest.NewRecorder()

	InspectItem(svc, testLogger())(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Nil(t, svc.inspect.ActorID)
}

func TestInspectItemsBatch(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	svc := &fakeInventoryService{batchResults: []inventory.View{{ItemID: a, Inspected: true}}}
	body := `{"item_ids":["` + a.String() + `","` + b.String() + `"],"reason":"promotion"}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/inventory/inspections", strings.NewReader(body)), uuid.New())
	resp := httptest.NewRecorder()

	InspectItems(svc, testLogger())(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, []uuid.UUID{a, b}, svc.batch.ItemIDs)
	var envelope struct {
		Data struct {
			Inspected int `json:"inspected"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, 1, envelope.Data.Inspected)
}

func TestInspectItemsRejectsBadIDs(t *testing.T) {
	for _, body := range []string{`{"item_ids":[],"reason":"damage"}`, `{"item_ids":["nope"],"reason":"damage"}`, `{"item_ids":["` + uuid.NewString() + `"]}`} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/inventory/inspections", strings.NewReader(body))
		resp := httptest.NewRecorder()
		InspectItems(&fakeInventoryService{}, testLogger())(resp, req)
		assert.Equal(t, http.StatusBadRequest, resp.Code, body)
	}
}

package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"go-inventory-sales/internal/model"
	"go-inventory-sales/internal/telemetry"
)

func saleRequest(total string, items ...SaleItemRequest) *CreateSaleRequest {
	return &CreateSaleRequest{
		Date:          "2024-05-10",
		Items:         items,
		TotalValue:    dec(total),
		PaymentMethod: "pix",
		Status:        string(model.SaleCompleted),
	}
}

func TestCreateSaleDecrementsStockThenRejectsOversell(t *testing.T) {
	db := newTestDB(t)
	svc := newSaleServiceForTest(db, nil)
	ctx := context.Background()
	p := seedProduct(t, db, "Caneca", 10, "10.00")

	sale, err := svc.CreateSale(ctx, saleRequest("30.00", SaleItemRequest{ProductID: int(p.ID), Quantity: 3}))
	require.NoError(t, err)
	assert.NotZero(t, sale.ID)
	assert.Equal(t, 7, stockOf(t, db, p.ID))

	_, err = svc.CreateSale(ctx, saleRequest("80.00", SaleItemRequest{ProductID: int(p.ID), Quantity: 8}))

	var stockErr *model.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, "Caneca", stockErr.ProductName)
	assert.Equal(t, 7, stockErr.Available)
	assert.Equal(t, 8, stockErr.Requested)
	assert.Equal(t, 7, stockOf(t, db, p.ID))
	assert.Equal(t, int64(1), countRows(t, db, &model.Sale{}))
}

func TestCreateSaleConcurrentNeverOversells(t *testing.T) {
	db := newFileTestDB(t)
	svc := newSaleServiceForTest(db, nil)
	p := seedProduct(t, db, "Caneca", 10, "10.00")

	var (
		wg       sync.WaitGroup
		sold     atomic.Int64
		rejected atomic.Int64
	)
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := svc.CreateSale(context.Background(), saleRequest("10.00", SaleItemRequest{ProductID: int(p.ID), Quantity: 1}))
			var stockErr *model.InsufficientStockError
			switch {
			case err == nil:
				sold.Add(1)
			case errors.As(err, &stockErr):
				rejected.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(10), sold.Load())
	assert.Equal(t, int64(30), rejected.Load())
	assert.Zero(t, stockOf(t, db, p.ID))
	assert.Equal(t, int64(10), countRows(t, db, &model.Sale{}))
	assert.Equal(t, int64(10), countRows(t, db, &model.OutboxEvent{}))
}

func TestCreateSaleRollsBackEarlierItems(t *testing.T) {
	db := newTestDB(t)
	svc := newSaleServiceForTest(db, nil)
	a := seedProduct(t, db, "A", 5, "1.00")
	b := seedProduct(t, db, "B", 1, "1.00")

	_, err := svc.CreateSale(context.Background(), saleRequest("4.00",
		SaleItemRequest{ProductID: int(a.ID), Quantity: 2},
		SaleItemRequest{ProductID: int(b.ID), Quantity: 2},
	))

	var stockErr *model.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, "B", stockErr.ProductName)
	assert.Equal(t, 5, stockOf(t, db, a.ID))
	assert.Equal(t, 1, stockOf(t, db, b.ID))
	assert.Zero(t, countRows(t, db, &model.Sale{}))
	assert.Zero(t, countRows(t, db, &model.OutboxEvent{}))
}

func TestCreateSaleUnknownProduct(t *testing.T) {
	db := newTestDB(t)
	svc := newSaleServiceForTest(db, nil)
	a := seedProduct(t, db, "A", 5, "1.00")

	_, err := svc.CreateSale(context.Background(), saleRequest("2.00",
		SaleItemRequest{ProductID: int(a.ID), Quantity: 1},
		SaleItemRequest{ProductID: 999, Quantity: 1},
	))

	assert.ErrorIs(t, err, model.ErrProductNotFound)
	var notFound *model.ProductNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, uint(999), notFound.ProductID)
	assert.Equal(t, 5, stockOf(t, db, a.ID))
	assert.Zero(t, countRows(t, db, &model.Sale{}))
}

func TestCreateSaleStockBoundaries(t *testing.T) {
	db := newTestDB(t)
	svc := newSaleServiceForTest(db, nil)
	ctx := context.Background()
	empty := seedProduct(t, db, "Empty", 0, "1.00")
	exact := seedProduct(t, db, "Exact", 4, "1.00")

	_, err := svc.CreateSale(ctx, saleRequest("1.00", SaleItemRequest{ProductID: int(empty.ID), Quantity: 1}))
	var stockErr *model.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, 0, stockErr.Available)

	_, err = svc.CreateSale(ctx, saleRequest("4.00", SaleItemRequest{ProductID: int(exact.ID), Quantity: 4}))
	require.NoError(t, err)
	assert.Equal(t, 0, stockOf(t, db, exact.ID))
}

func TestCreateSaleSameProductTwice(t *testing.T) {
	db := newTestDB(t)
	svc := newSaleServiceForTest(db, nil)
	p := seedProduct(t, db, "A", 5, "1.00")

	_, err := svc.CreateSale(context.Background(), saleRequest("6.00",
		SaleItemRequest{ProductID: int(p.ID), Quantity: 3},
		SaleItemRequest{ProductID: int(p.ID), Quantity: 3},
	))

	var stockErr *model.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, 2, stockErr.Available)
	assert.Equal(t, 5, stockOf(t, db, p.ID))
}

func TestCreateSaleRoundTripsItems(t *testing.T) {
	db := newTestDB(t)
	svc := newSaleServiceForTest(db, nil)
	ctx := context.Background()
	a := seedProduct(t, db, "Prato", 10, "5.50")
	b := seedProduct(t, db, "Caneca", 10, "19.90")

	req := saleRequest("28.00",
		SaleItemRequest{ProductID: int(b.ID), Quantity: 1, UnitPrice: dec("17.00")},
		SaleItemRequest{ProductID: int(a.ID), Quantity: 2},
	)
	req.Customer = strPtr("  Maria ")
	created, err := svc.CreateSale(ctx, req)
	require.NoError(t, err)

	found, err := svc.GetSale(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, found.Items, 2)

	assert.Equal(t, b.ID, found.Items[0].ProductID)
	assert.Equal(t, "Caneca", found.Items[0].ProductName)
	assert.True(t, found.Items[0].UnitPrice.Equal(decimal.RequireFromString("17")))
	assert.True(t, found.Items[0].Total.Equal(decimal.RequireFromString("17")))

	assert.Equal(t, a.ID, found.Items[1].ProductID)
	assert.Equal(t, 2, found.Items[1].Quantity)
	assert.True(t, found.Items[1].UnitPrice.Equal(decimal.RequireFromString("5.50")))
	assert.True(t, found.Items[1].Total.Equal(decimal.RequireFromString("11")))

	assert.True(t, found.TotalValue.Equal(decimal.RequireFromString("28")))
	assert.Equal(t, "Maria", *found.Customer)
	assert.Equal(t, model.SaleCompleted, found.Status)
	assert.Equal(t, "2024-05-10", found.Date.UTC().Format("2006-01-02"))
}

func TestCreateSaleWritesOutboxEvent(t *testing.T) {
	db := newTestDB(t)
	svc := newSaleServiceForTest(db, nil)
	p := seedProduct(t, db, "A", 5, "2.00")

	sale, err := svc.CreateSale(context.Background(), saleRequest("2.00", SaleItemRequest{ProductID: int(p.ID), Quantity: 1}))
	require.NoError(t, err)

	var events []model.OutboxEvent
	require.NoError(t, db.Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, model.EventSaleCreated, events[0].EventType)
	assert.Equal(t, "sale", events[0].AggregateType)
	assert.Equal(t, "1", events[0].AggregateID)
	assert.Equal(t, sale.ID, uint(1))
	assert.Contains(t, string(events[0].Payload), `"payment_method":"pix"`)
	assert.Nil(t, events[0].PublishedAt)
}

func TestCreateSaleTotalMismatchRollsBack(t *testing.T) {
	db := newTestDB(t)
	svc := newSaleServiceForTest(db, nil)
	p := seedProduct(t, db, "A", 5, "2.00")

	_, err := svc.CreateSale(context.Background(), saleRequest("5.00", SaleItemRequest{ProductID: int(p.ID), Quantity: 2}))

	var vErr *model.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "total_value", vErr.Field)
	assert.Equal(t, 5, stockOf(t, db, p.ID))
	assert.Zero(t, countRows(t, db, &model.Sale{}))
}

func TestCreateSaleValidation(t *testing.T) {
	db := newTestDB(t)
	svc := newSaleServiceForTest(db, nil)
	p := seedProduct(t, db, "A", 5, "2.00")
	item := SaleItemRequest{ProductID: int(p.ID), Quantity: 1}

	cases := map[string]struct {
		mutate func(*CreateSaleRequest)
		field  string
	}{
		"missing date":           {func(r *CreateSaleRequest) { r.Date = "" }, "date"},
		"bad date":               {func(r *CreateSaleRequest) { r.Date = "10/05/2024" }, "date"},
		"no items":               {func(r *CreateSaleRequest) { r.Items = []SaleItemRequest{} }, "items"},
		"nil items":              {func(r *CreateSaleRequest) { r.Items = nil }, "items"},
		"missing total":          {func(r *CreateSaleRequest) { r.TotalValue = nil }, "total_value"},
		"negative total":         {func(r *CreateSaleRequest) { r.TotalValue = dec("-1") }, "total_value"},
		"sub-cent total":         {func(r *CreateSaleRequest) { r.TotalValue = dec("0.999") }, "total_value"},
		"missing payment method": {func(r *CreateSaleRequest) { r.PaymentMethod = " " }, "payment_method"},
		"missing status":         {func(r *CreateSaleRequest) { r.Status = "" }, "status"},
		"unknown status":         {func(r *CreateSaleRequest) { r.Status = "Concluída" }, "status"},
		"created cancelled":      {func(r *CreateSaleRequest) { r.Status = "CANCELLED" }, "status"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := saleRequest("2.00", item)
			tc.mutate(req)

			_, err := svc.CreateSale(context.Background(), req)

			var vErr *model.ValidationError
			require.True(t, errors.As(err, &vErr), "got %v", err)
			assert.Equal(t, tc.field, vErr.Field)
		})
	}
	assert.Equal(t, 5, stockOf(t, db, p.ID))
}

func TestCreateSaleInvalidItemStructure(t *testing.T) {
	db := newTestDB(t)
	svc := newSaleServiceForTest(db, nil)
	p := seedProduct(t, db, "A", 5, "2.00")

	cases := []SaleItemRequest{
		{ProductID: 0, Quantity: 1},
		{ProductID: -3, Quantity: 1},
		{ProductID: int(p.ID), Quantity: 0},
		{ProductID: int(p.ID), Quantity: -1},
		{ProductID: int(p.ID), Quantity: 1, UnitPrice: dec("-0.01")},
		{ProductID: int(p.ID), Quantity: 3, UnitPrice: dec("0.333")},
	}
	for _, bad := range cases {
		_, err := svc.CreateSale(context.Background(), saleRequest("2.00", SaleItemRequest{ProductID: int(p.ID), Quantity: 1}, bad))

		var itemErr *model.InvalidItemStructureError
		require.True(t, errors.As(err, &itemErr), "got %v", err)
		assert.Equal(t, 1, itemErr.Index)
	}
	assert.Equal(t, 5, stockOf(t, db, p.ID))
}

func TestCancelSaleRestoresStock(t *testing.T) {
	db := newTestDB(t)
	svc := newSaleServiceForTest(db, nil)
	ctx := context.Background()
	p := seedProduct(t, db, "A", 10, "1.00")

	sale, err := svc.CreateSale(ctx, saleRequest("4.00", SaleItemRequest{ProductID: int(p.ID), Quantity: 4}))
	require.NoError(t, err)
	require.Equal(t, 6, stockOf(t, db, p.ID))

	updated, err := svc.UpdateSale(ctx, sale.ID, &UpdateSaleRequest{Status: strPtr("CANCELLED")})
	require.NoError(t, err)
	assert.Equal(t, model.SaleCancelled, updated.Status)
	assert.Equal(t, 10, stockOf(t, db, p.ID))

	// Repeating the cancellation must not restock twice
	_, err = svc.UpdateSale(ctx, sale.ID, &UpdateSaleRequest{Status: strPtr("CANCELLED")})
	require.NoError(t, err)
	assert.Equal(t, 10, stockOf(t, db, p.ID))

	_, err = svc.UpdateSale(ctx, sale.ID, &UpdateSaleRequest{Status: strPtr("COMPLETED")})
	var vErr *model.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "status", vErr.Field)

	var cancelled int64
	require.NoError(t, db.Model(&model.OutboxEvent{}).Where("event_type = ?", model.EventSaleCancelled).Count(&cancelled).Error)
	assert.Equal(t, int64(1), cancelled)
}

func TestUpdateSaleFields(t *testing.T) {
	db := newTestDB(t)
	svc := newSaleServiceForTest(db, nil)
	ctx := context.Background()
	p := seedProduct(t, db, "A", 10, "1.00")
	sale, err := svc.CreateSale(ctx, saleRequest("1.00", SaleItemRequest{ProductID: int(p.ID), Quantity: 1}))
	require.NoError(t, err)

	updated, err := svc.UpdateSale(ctx, sale.ID, &UpdateSaleRequest{
		Date:          strPtr("2024-06-01T15:00:00Z"),
		Customer:      strPtr("João"),
		PaymentMethod: strPtr("dinheiro"),
		Status:        strPtr("PENDING"),
	})
	require.NoError(t, err)
	assert.Equal(t, "João", *updated.Customer)
	assert.Equal(t, "dinheiro", updated.PaymentMethod)
	assert.Equal(t, model.SalePending, updated.Status)
	assert.Equal(t, "2024-06-01T15:00:00Z", updated.Date.UTC().Format("2006-01-02T15:04:05Z07:00"))
	assert.Equal(t, 9, stockOf(t, db, p.ID))
	require.Len(t, updated.Items, 1)
}

func TestUpdateSaleErrors(t *testing.T) {
	db := newTestDB(t)
	svc := newSaleServiceForTest(db, nil)
	ctx := context.Background()

	_, err := svc.UpdateSale(ctx, 1, &UpdateSaleRequest{})
	var vErr *model.ValidationError
	assert.True(t, errors.As(err, &vErr))

	_, err = svc.UpdateSale(ctx, 1, &UpdateSaleRequest{Status: strPtr("DONE")})
	assert.True(t, errors.As(err, &vErr))

	_, err = svc.UpdateSale(ctx, 42, &UpdateSaleRequest{Status: strPtr("COMPLETED")})
	assert.ErrorIs(t, err, model.ErrSaleNotFound)
}

func TestDeleteSaleRestoresStockUnlessCancelled(t *testing.T) {
	db := newTestDB(t)
	svc := newSaleServiceForTest(db, nil)
	ctx := context.Background()
	p := seedProduct(t, db, "A", 10, "1.00")

	open, err := svc.CreateSale(ctx, saleRequest("3.00", SaleItemRequest{ProductID: int(p.ID), Quantity: 3}))
	require.NoError(t, err)
	require.NoError(t, svc.DeleteSale(ctx, open.ID))
	assert.Equal(t, 10, stockOf(t, db, p.ID))

	cancelled, err := svc.CreateSale(ctx, saleRequest("2.00", SaleItemRequest{ProductID: int(p.ID), Quantity: 2}))
	require.NoError(t, err)
	_, err = svc.UpdateSale(ctx, cancelled.ID, &UpdateSaleRequest{Status: strPtr("CANCELLED")})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteSale(ctx, cancelled.ID))
	assert.Equal(t, 10, stockOf(t, db, p.ID))

	assert.Zero(t, countRows(t, db, &model.Sale{}))
	assert.ErrorIs(t, svc.DeleteSale(ctx, open.ID), model.ErrSaleNotFound)
}

func TestDeleteSaleSkipsRemovedProducts(t *testing.T) {
	db := newTestDB(t)
	svc := newSaleServiceForTest(db, nil)
	ctx := context.Background()
	kept := seedProduct(t, db, "Kept", 10, "1.00")
	gone := seedProduct(t, db, "Gone", 10, "1.00")

	sale, err := svc.CreateSale(ctx, saleRequest("2.00",
		SaleItemRequest{ProductID: int(gone.ID), Quantity: 1},
		SaleItemRequest{ProductID: int(kept.ID), Quantity: 1},
	))
	require.NoError(t, err)
	require.NoError(t, db.Delete(&model.Product{}, gone.ID).Error)

	require.NoError(t, svc.DeleteSale(ctx, sale.ID))
	assert.Equal(t, 10, stockOf(t, db, kept.ID))
}

func TestListSalesNewestFirst(t *testing.T) {
	db := newTestDB(t)
	svc := newSaleServiceForTest(db, nil)
	ctx := context.Background()
	p := seedProduct(t, db, "A", 10, "1.00")

	older := saleRequest("1.00", SaleItemRequest{ProductID: int(p.ID), Quantity: 1})
	older.Date = "2024-01-01"
	newer := saleRequest("1.00", SaleItemRequest{ProductID: int(p.ID), Quantity: 1})
	newer.Date = "2024-03-01"
	_, err := svc.CreateSale(ctx, older)
	require.NoError(t, err)
	_, err = svc.CreateSale(ctx, newer)
	require.NoError(t, err)

	sales, err := svc.ListSales(ctx)
	require.NoError(t, err)
	require.Len(t, sales, 2)
	assert.Equal(t, "2024-03-01", sales[0].Date.UTC().Format("2006-01-02"))
}

func TestCreateSaleRecordsMetrics(t *testing.T) {
	db := newTestDB(t)
	reader := sdkmetric.NewManualReader()
	tel := &telemetry.Providers{
		TracerProvider: tracenoop.NewTracerProvider(),
		MeterProvider:  sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)),
	}
	svc := newSaleServiceForTest(db, tel)
	ctx := context.Background()
	p := seedProduct(t, db, "A", 1, "1.00")

	_, err := svc.CreateSale(ctx, saleRequest("1.00", SaleItemRequest{ProductID: int(p.ID), Quantity: 1}))
	require.NoError(t, err)
	_, err = svc.CreateSale(ctx, saleRequest("1.00", SaleItemRequest{ProductID: int(p.ID), Quantity: 1}))
	require.Error(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	counts := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					counts[m.Name] += dp.Value
				}
			}
		}
	}
	assert.Equal(t, int64(1), counts["sales.created"])
	assert.Equal(t, int64(1), counts["sales.rejected"])
}

//go:build integration

package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qcms/backend/internal/domain/quality"
	"github.com/qcms/backend/internal/domain/shared"
	"github.com/qcms/backend/internal/testutil"
)

func TestPostgres_MasterData(t *testing.T) {
	pg := testutil.NewPostgresDB(t)
	ctx := context.Background()
	catalog := quality.Catalog()

	customers := NewCrudRepository[quality.Customer](pg.DB, catalog[quality.EntityCustomers])
	links := NewCrudRepository[quality.CustomerSite](pg.DB, catalog[quality.EntityCustomerSite])

	require.NoError(t, customers.Create(ctx, &quality.Customer{CustomerCode: "ACME", CustomerName: "Acme Corp", IsActive: true}))

	err := customers.Create(ctx, &quality.Customer{CustomerCode: "ACME", CustomerName: "Again", IsActive: true})
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, shared.ErrAlreadyExists.Code, de.Code)

	err = links.Create(ctx, &quality.CustomerSite{CustomerCode: "ACME", SiteCode: "NOPE"})
	require.ErrorAs(t, err, &de)
	assert.Equal(t, shared.ErrInvalidInput.Code, de.Code)

	items, total, err := customers.FindAll(ctx, shared.Filter{Page: 1, Limit: 10, Search: "acme"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, "Acme Corp", items[0].CustomerName)

	key := shared.Key{{Column: "customer_code", Value: "ACME"}}
	require.NoError(t, customers.Delete(ctx, key))
	_, total, err = customers.FindAll(ctx, shared.Filter{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, total, "soft-deleted rows are hidden by default")
}

func TestPostgres_CheckinUpsert(t *testing.T) {
	pg := testutil.NewPostgresDB(t)
	ctx := context.Background()
	repo := NewGormCheckinRepository(pg.DB, quality.Catalog()[quality.EntityCheckin])

	day := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	rows := []quality.InfCheckin{
		{LotNo: "L1", Station: "AOI", LineName: "SMT-1", Quantity: 10, CheckinDate: day},
		{LotNo: "L2", Station: "AOI", LineName: "SMT-2", Quantity: 20, CheckinDate: day},
	}
	written, err := repo.UpsertBatch(ctx, rows, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), written)

	rows[0].Quantity = 15
	_, err = repo.UpsertBatch(ctx, rows, 10)
	require.NoError(t, err)

	var count int64
	require.NoError(t, pg.DB.Model(&quality.InfCheckin{}).Count(&count).Error)
	assert.Equal(t, int64(2), count, "natural key collisions update in place")

	var first quality.InfCheckin
	require.NoError(t, pg.DB.Where("lot_no = ?", "L1").First(&first).Error)
	assert.Equal(t, 15, first.Quantity)

	stats, err := repo.LineStatistics(ctx, nil, nil)
	require.NoError(t, err)
	assert.Len(t, stats, 2)
}

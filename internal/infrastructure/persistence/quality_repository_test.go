package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qcms/backend/internal/domain/quality"
)

func TestGormDefectRepository_Statistics(t *testing.T) {
	db, mock, mockDB := newMockGormDB(t)
	defer mockDB.Close()
	repo := NewGormDefectRepository(db, quality.Catalog()[quality.EntityDefects])

	mock.ExpectQuery(`SELECT count\(\*\) FROM "defects" WHERE is_active = \$1`).
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
	mock.ExpectQuery(`SELECT defect_type AS bucket, COUNT\(\*\) AS count FROM "defects" WHERE is_active = \$1 GROUP BY "defect_type" ORDER BY defect_type`).
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows([]string{"bucket", "count"}).AddRow("cosmetic", 3).AddRow("functional", 2))
	mock.ExpectQuery(`SELECT severity AS bucket, COUNT\(\*\) AS count FROM "defects" WHERE is_active = \$1 GROUP BY "severity" ORDER BY severity`).
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows([]string{"bucket", "count"}).AddRow("major", 5))

	stats, err := repo.Statistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5), stats.Total)
	assert.Equal(t, []quality.CountBucket{{Key: "cosmetic", Count: 3}, {Key: "functional", Count: 2}}, stats.ByType)
	assert.Equal(t, []quality.CountBucket{{Key: "major", Count: 5}}, stats.BySeverity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormCheckinRepository_UpsertBatch(t *testing.T) {
	t.Run("upserts in batches on the natural key", func(t *testing.T) {
		db, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormCheckinRepository(db, quality.Catalog()[quality.EntityCheckin])

		now := time.Now()
		rows := []quality.InfCheckin{
			{LotNo: "L1", Station: "AOI", Quantity: 10, CheckinDate: now},
			{LotNo: "L2", Station: "AOI", Quantity: 20, CheckinDate: now},
			{LotNo: "L3", Station: "FQC", Quantity: 30, CheckinDate: now},
		}

		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO "inf_checkin" .* ON CONFLICT \("lot_no","station"\) DO UPDATE SET "mo_number"="excluded"."mo_number",.* RETURNING "id"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2))
		mock.ExpectQuery(`INSERT INTO "inf_checkin" .* ON CONFLICT`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
		mock.ExpectCommit()

		written, err := repo.UpsertBatch(context.Background(), rows, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(3), written)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nothing to write", func(t *testing.T) {
		db, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormCheckinRepository(db, quality.Catalog()[quality.EntityCheckin])

		written, err := repo.UpsertBatch(context.Background(), nil, 100)
		require.NoError(t, err)
		assert.Zero(t, written)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormIqaRepository_SupplierStatistics(t *testing.T) {
	db, mock, mockDB := newMockGormDB(t)
	defer mockDB.Close()
	repo := NewGormIqaRepository(db, quality.Catalog()[quality.EntityIqaData])

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT supplier_code, COUNT\(\*\) AS inspections, SUM\(CASE WHEN result = \$1 THEN 1 ELSE 0 END\) AS passed, SUM\(CASE WHEN result = \$2 THEN 1 ELSE 0 END\) AS failed FROM "iqadata" WHERE inspection_date >= \$3 GROUP BY "supplier_code"`).
		WithArgs("pass", "fail", from).
		WillReturnRows(sqlmock.NewRows([]string{"supplier_code", "inspections", "passed", "failed"}).
			AddRow("SUP-A", 4, 3, 1))

	stats, err := repo.SupplierStatistics(context.Background(), &from, nil)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 75.0, stats[0].PassRate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

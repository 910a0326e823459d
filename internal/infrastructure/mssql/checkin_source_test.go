package mssql

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var columns = []string{"LOT_NO", "STATION", "MO_NUMBER", "PART_NO", "MODEL_NAME", "LINE_NAME", "QTY", "OPERATOR", "CHECKIN_DATE"}

func TestNewCheckinSource_TableName(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	for _, name := range []string{"INF_CHECKIN", "dbo.INF_CHECKIN", ""} {
		_, err := NewCheckinSource(db, name, 0, nil)
		assert.NoError(t, err, name)
	}
	for _, name := range []string{"INF; DROP TABLE x", "a.b.c", "1abc", "[dbo].[x]"} {
		_, err := NewCheckinSource(db, name, 0, nil)
		assert.Error(t, err, name)
	}
}

func TestCheckinSource_FetchCheckins(t *testing.T) {
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)
	query := regexp.QuoteMeta("FROM dbo.INF_CHECKIN WHERE CHECKIN_DATE >= @p1 AND CHECKIN_DATE < @p2")

	t.Run("maps rows and keeps the latest duplicate", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		early := from.Add(time.Hour)
		late := from.Add(2 * time.Hour)
		mock.ExpectQuery(query).
			WithArgs(from, to).
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow("LOT-1 ", "SMT", "MO1", "P1", "M1", "L1", 10, "amy", early).
				AddRow("LOT-2", "SMT", nil, nil, nil, "L2", 5, nil, early).
				AddRow("LOT-1", "SMT", "MO1", "P1", "M1", "L1", 12, "bob", late).
				AddRow("", "SMT", nil, nil, nil, nil, 1, nil, early))

		src, err := NewCheckinSource(db, "dbo.INF_CHECKIN", time.Second, nil)
		require.NoError(t, err)

		got, err := src.FetchCheckins(context.Background(), from, to)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "LOT-1", got[0].LotNo)
		assert.Equal(t, 12, got[0].Quantity)
		assert.Equal(t, "bob", got[0].Operator)
		assert.Equal(t, late, got[0].CheckinDate)
		assert.Equal(t, "LOT-2", got[1].LotNo)
		assert.Empty(t, got[1].MONumber)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wraps query errors", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(query).WillReturnError(errors.New("login failed"))
		src, err := NewCheckinSource(db, "dbo.INF_CHECKIN", time.Second, nil)
		require.NoError(t, err)

		_, err = src.FetchCheckins(context.Background(), from, to)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "query check-ins")
	})
}

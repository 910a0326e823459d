// Package mssql reads check-in records from the shop-floor SQL Server.
package mssql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	_ "github.com/microsoft/go-mssqldb"
	"go.uber.org/zap"

	"github.com/qcms/backend/internal/domain/quality"
	"github.com/qcms/backend/internal/infrastructure/config"
)

var _ quality.CheckinSource = (*CheckinSource)(nil)

// tableName allows schema-qualified identifiers such as dbo.INF_CHECKIN
var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

const checkinColumns = "LOT_NO, STATION, MO_NUMBER, PART_NO, MODEL_NAME, LINE_NAME, QTY, OPERATOR, CHECKIN_DATE"

// CheckinSource queries the MES check-in table by date range
type CheckinSource struct {
	db      *sql.DB
	query   string
	timeout time.Duration
	logger  *zap.Logger
}

// Open connects to the server configured in cfg
func Open(cfg *config.MSSQLConfig, logger *zap.Logger) (*CheckinSource, error) {
	if !cfg.Enabled() {
		return nil, errors.New("mssql source is not configured")
	}
	db, err := sql.Open("sqlserver", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open mssql: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(1)
	db.SetConnMaxIdleTime(5 * time.Minute)

	src, err := NewCheckinSource(db, cfg.CheckinTable, cfg.QueryTimeout, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return src, nil
}

// NewCheckinSource wraps an existing handle
func NewCheckinSource(db *sql.DB, table string, timeout time.Duration, logger *zap.Logger) (*CheckinSource, error) {
	if table == "" {
		table = "INF_CHECKIN"
	}
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid check-in table name %q", table)
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	query := "SELECT " + checkinColumns + " FROM " + table +
		" WHERE CHECKIN_DATE >= @p1 AND CHECKIN_DATE < @p2 ORDER BY CHECKIN_DATE"
	return &CheckinSource{
		db:      db,
		query:   query,
		timeout: timeout,
		logger:  logger,
	}, nil
}

// FetchCheckins returns rows with from <= CHECKIN_DATE < to. Rows sharing a
// (lot, station) keep the latest occurrence.
func (s *CheckinSource) FetchCheckins(ctx context.Context, from, to time.Time) ([]quality.InfCheckin, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, s.query, from, to)
	if err != nil {
		return nil, fmt.Errorf("query check-ins: %w", err)
	}
	defer rows.Close()

	index := make(map[[2]string]int)
	out := make([]quality.InfCheckin, 0)
	skipped := 0
	for rows.Next() {
		var (
			lot, station                    sql.NullString
			mo, part, model, line, operator sql.NullString
			qty                             sql.NullInt64
			date                            sql.NullTime
		)
		if err := rows.Scan(&lot, &station, &mo, &part, &model, &line, &qty, &operator, &date); err != nil {
			return nil, fmt.Errorf("scan check-in: %w", err)
		}
		c := quality.InfCheckin{
			LotNo:       strings.TrimSpace(lot.String),
			Station:     strings.TrimSpace(station.String),
			MONumber:    strings.TrimSpace(mo.String),
			PartNo:      strings.TrimSpace(part.String),
			ModelName:   strings.TrimSpace(model.String),
			LineName:    strings.TrimSpace(line.String),
			Quantity:    int(qty.Int64),
			Operator:    strings.TrimSpace(operator.String),
			CheckinDate: date.Time,
		}
		if c.LotNo == "" || c.Station == "" || !date.Valid {
			skipped++
			continue
		}
		k := [2]string{c.LotNo, c.Station}
		if i, ok := index[k]; ok {
			out[i] = c
			continue
		}
		index[k] = len(out)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read check-ins: %w", err)
	}
	if skipped > 0 {
		s.logger.Warn("Skipped incomplete MES check-ins", zap.Int("count", skipped))
	}
	return out, nil
}

// Ping checks the connection
func (s *CheckinSource) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying handle
func (s *CheckinSource) Close() error {
	return s.db.Close()
}

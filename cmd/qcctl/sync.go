package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	qualityapp "github.com/qcms/backend/internal/application/quality"
	"github.com/qcms/backend/internal/domain/quality"
	"github.com/qcms/backend/internal/infrastructure/mssql"
	"github.com/qcms/backend/internal/infrastructure/persistence"
)

// timeLayouts are accepted by --from and --to
var timeLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

func parseTime(value string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q: use RFC 3339 or YYYY-MM-DD", value)
}

// syncWindow resolves the flags to [from, to). Without --from the window is
// the configured lookback ending at --to (or now).
func syncWindow(fromFlag, toFlag string, lookback time.Duration, now time.Time) (time.Time, time.Time, error) {
	to := now
	if toFlag != "" {
		t, err := parseTime(toFlag)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to = t
	}
	if fromFlag == "" {
		return to.Add(-lookback), to, nil
	}
	from, err := parseTime(fromFlag)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}

func newSyncCmd() *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Copy check-ins from the MES database",
		Long: `Copy check-in records in [from, to) from the MES SQL Server into
inf_checkin. Without --from the configured sync lookback is used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, from, to)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Start of the window (inclusive)")
	cmd.Flags().StringVar(&to, "to", "", "End of the window (exclusive, default now)")
	return cmd
}

func runSync(cmd *cobra.Command, fromFlag, toFlag string) error {
	env, err := openEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	if !env.cfg.MSSQL.Enabled() {
		return errors.New("mssql.host is not configured")
	}
	from, to, err := syncWindow(fromFlag, toFlag, env.cfg.Sync.Lookback, time.Now())
	if err != nil {
		return err
	}

	source, err := mssql.Open(&env.cfg.MSSQL, env.log)
	if err != nil {
		return err
	}
	defer source.Close()

	cfg := quality.Catalog()[quality.EntityCheckin]
	svc := qualityapp.NewCheckinService(
		persistence.NewGormCheckinRepository(env.db.DB, cfg),
		cfg,
		source,
		qualityapp.SyncOptions{MaxRange: env.cfg.Sync.MaxRange, BatchSize: env.cfg.Sync.BatchSize},
		env.log,
	)
	result, err := svc.Sync(cmd.Context(), from, to)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

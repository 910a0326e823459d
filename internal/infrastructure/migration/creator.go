package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"text/template"
	"time"
)

const migrationTemplate = `-- {{.Name}} ({{.Direction}})
-- Created: {{.Timestamp}}

`

// MigrationFile describes a created up/down pair
type MigrationFile struct {
	Version  uint
	Name     string
	UpPath   string
	DownPath string
}

// CreateMigration writes the next sequentially numbered up/down pair into dir
func CreateMigration(dir, name string) (*MigrationFile, error) {
	base := sanitizeName(name)
	if base == "" {
		return nil, fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create migrations directory: %w", err)
	}

	versions, err := ListVersions(dir)
	if err != nil {
		return nil, err
	}
	var next uint = 1
	if len(versions) > 0 {
		next = versions[len(versions)-1] + 1
	}

	prefix := fmt.Sprintf("%06d_%s", next, base)
	mf := &MigrationFile{
		Version:  next,
		Name:     base,
		UpPath:   filepath.Join(dir, prefix+".up.sql"),
		DownPath: filepath.Join(dir, prefix+".down.sql"),
	}

	now := time.Now().Format(time.RFC3339)
	if err := writeMigration(mf.UpPath, base, "up", now); err != nil {
		return nil, err
	}
	if err := writeMigration(mf.DownPath, base, "down", now); err != nil {
		_ = os.Remove(mf.UpPath)
		return nil, err
	}
	return mf, nil
}

func writeMigration(path, name, direction, timestamp string) error {
	tmpl := template.Must(template.New("migration").Parse(migrationTemplate))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()
	return tmpl.Execute(f, map[string]string{"Name": name, "Direction": direction, "Timestamp": timestamp})
}

// sanitizeName lowercases name and joins words with single underscores
func sanitizeName(name string) string {
	words := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return r == ' ' || r == '-' || r == '_'
	})
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.Map(func(r rune) rune {
			if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
				return r
			}
			return -1
		}, w)
		if w != "" {
			out = append(out, w)
		}
	}
	return strings.Join(out, "_")
}

// ListVersions returns the sorted versions that have an up file in dir
func ListVersions(dir string) ([]uint, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.up.sql"))
	if err != nil {
		return nil, err
	}
	versions := make([]uint, 0, len(matches))
	for _, m := range matches {
		num, _, ok := strings.Cut(filepath.Base(m), "_")
		if !ok {
			continue
		}
		v, err := strconv.ParseUint(num, 10, 32)
		if err != nil {
			continue
		}
		versions = append(versions, uint(v))
	}
	slices.Sort(versions)
	return versions, nil
}

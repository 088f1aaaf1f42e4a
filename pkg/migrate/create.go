package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const versionLayout = "20060102150405"

var unsafeNameChars = regexp.MustCompile(`[^a-z0-9_]+`)

const sqlTemplate = `-- +goose Up
-- +goose StatementBegin
-- %[1]s
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
-- rollback %[1]s
-- +goose StatementEnd
`

// CreateSQLMigration writes an empty goose migration named <dir>/<version>_<name>.sql, where
// version is the current UTC time. The version must be newer than every migration already in dir.
func CreateSQLMigration(dir, name string) (string, error) {
	return createSQLMigration(dir, name, time.Now())
}

func createSQLMigration(dir, name string, now time.Time) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("dir is required")
	}
	slug := sanitizeName(name)
	if slug == "" {
		return "", fmt.Errorf("name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}

	version := now.UTC().Format(versionLayout)
	existing, err := scanDir(dir)
	if err != nil {
		return "", err
	}
	if n := len(existing); n > 0 {
		latest := existing[n-1]
		switch next, _ := strconv.ParseInt(version, 10, 64); {
		case next == latest.version:
			return "", fmt.Errorf("migration version %s already used by %s", version, latest.name)
		case next < latest.version:
			return "", fmt.Errorf("migration version %s is older than %s", version, latest.name)
		}
	}

	path := filepath.Join(dir, version+"_"+slug+".sql")
	if err := os.WriteFile(path, []byte(fmt.Sprintf(sqlTemplate, slug)), 0o644); err != nil {
		return "", fmt.Errorf("write migration %q: %w", path, err)
	}
	return path, nil
}

func sanitizeName(name string) string {
	slug := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
	return strings.Trim(unsafeNameChars.ReplaceAllString(slug, "_"), "_")
}

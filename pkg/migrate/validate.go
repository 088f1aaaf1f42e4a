package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var sqlFileRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

const (
	annotationUp             = "-- +goose Up"
	annotationDown           = "-- +goose Down"
	annotationStatementBegin = "-- +goose StatementBegin"
	annotationStatementEnd   = "-- +goose StatementEnd"
)

// migrationFile is one goose SQL migration on disk.
type migrationFile struct {
	version int64
	name    string
	path    string
}

// scanDir lists the SQL migrations in dir ordered by version. Misnamed files and reused
// versions are errors; other files are ignored.
func scanDir(dir string) ([]migrationFile, error) {
	if dir == "" {
		return nil, fmt.Errorf("dir is required")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %q: %w", dir, err)
	}

	files := make([]migrationFile, 0, len(entries))
	byVersion := map[int64]string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		m := sqlFileRe.FindStringSubmatch(name)
		if m == nil {
			return nil, fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name)
		}
		version, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("migration %q: %w", name, err)
		}
		if prev, ok := byVersion[version]; ok {
			return nil, fmt.Errorf("migration version %d already used by %q and %q", version, prev, name)
		}
		byVersion[version] = name
		files = append(files, migrationFile{version: version, name: name, path: filepath.Join(dir, name)})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].version < files[j].version })
	return files, nil
}

// ValidateDir checks that dir holds at least one migration and that every migration has an Up
// section followed by a Down section, with StatementBegin and StatementEnd paired in each.
func ValidateDir(dir string) error {
	files, err := scanDir(dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no migrations found in %q", dir)
	}
	for _, f := range files {
		body, err := os.ReadFile(f.path)
		if err != nil {
			return fmt.Errorf("read file %q: %w", f.path, err)
		}
		if err := checkAnnotations(string(body)); err != nil {
			return fmt.Errorf("migration %q: %w", f.name, err)
		}
	}
	return nil
}

func checkAnnotations(body string) error {
	up := strings.Index(body, annotationUp)
	down := strings.Index(body, annotationDown)
	switch {
	case up < 0:
		return fmt.Errorf("missing %q", annotationUp)
	case down < 0:
		return fmt.Errorf("missing %q", annotationDown)
	case down < up:
		return fmt.Errorf("%q must come before %q", annotationUp, annotationDown)
	}

	for _, section := range []string{body[up:down], body[down:]} {
		open := false
		for _, line := range strings.Split(section, "\n") {
			switch strings.TrimSpace(line) {
			case annotationStatementBegin:
				if open {
					return fmt.Errorf("nested %q", annotationStatementBegin)
				}
				open = true
			case annotationStatementEnd:
				if !open {
					return fmt.Errorf("%q without %q", annotationStatementEnd, annotationStatementBegin)
				}
				open = false
			}
		}
		if open {
			return fmt.Errorf("unterminated %q", annotationStatementBegin)
		}
	}
	return nil
}

package migration

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"time"
)

const versionWidth = 6

var fileTemplate = template.Must(template.New("migration").Parse(`-- {{.Name}} ({{.Direction}})
-- Created: {{.Timestamp}}
{{- if .Description}}
-- {{.Description}}
{{- end}}

`))

// MigrationFile is a generated up/down pair
type MigrationFile struct {
	Version     uint
	Name        string
	Description string
	UpPath      string
	DownPath    string
}

// CreateMigration writes an empty up/down pair numbered one past the highest
// existing version in dir.
func CreateMigration(dir, name, description string) (*MigrationFile, error) {
	name = sanitizeName(name)
	if name == "" {
		return nil, fmt.Errorf("migration name must contain letters or digits")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create migrations directory: %w", err)
	}

	existing, err := ListMigrations(os.DirFS(dir))
	if err != nil {
		return nil, err
	}
	var version uint = 1
	if n := len(existing); n > 0 {
		version = existing[n-1].Version + 1
	}

	base := fmt.Sprintf("%0*d_%s", versionWidth, version, name)
	mf := &MigrationFile{
		Version:     version,
		Name:        name,
		Description: description,
		UpPath:      filepath.Join(dir, base+".up.sql"),
		DownPath:    filepath.Join(dir, base+".down.sql"),
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if err := writeMigrationFile(mf.UpPath, mf, "up", now); err != nil {
		return nil, err
	}
	if err := writeMigrationFile(mf.DownPath, mf, "down", now); err != nil {
		_ = os.Remove(mf.UpPath)
		return nil, err
	}
	return mf, nil
}

func writeMigrationFile(path string, mf *MigrationFile, direction, timestamp string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	return fileTemplate.Execute(f, map[string]string{
		"Name":        mf.Name,
		"Direction":   direction,
		"Timestamp":   timestamp,
		"Description": mf.Description,
	})
}

// sanitizeName lowercases name and collapses every run of separators into one
// underscore; other characters are dropped.
func sanitizeName(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			pendingSep = true
		}
	}
	return b.String()
}

// Entry is one migration found in a source
type Entry struct {
	Version uint
	Name    string
}

// ListMigrations returns the up migrations in fsys ordered by version.
// A missing directory yields an empty list.
func ListMigrations(fsys fs.FS) ([]Entry, error) {
	files, err := fs.Glob(fsys, "*.up.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}

	entries := make([]Entry, 0, len(files))
	for _, file := range files {
		base := strings.TrimSuffix(file, ".up.sql")
		prefix, name, ok := strings.Cut(base, "_")
		if !ok {
			continue
		}
		version, err := strconv.ParseUint(prefix, 10, 64)
		if err != nil {
			continue
		}
		entries = append(entries, Entry{Version: uint(version), Name: name})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Version < entries[j].Version })
	return entries, nil
}

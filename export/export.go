// Package export builds archival exports: per-user and whole-family
// data dumps plus full backups with a database dump and a mirror of the
// object store. Archives are staged under a scratch directory that a
// Job cleans up once the archive has been streamed.
package export

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ourlineintime/lineintime/config"
	"github.com/ourlineintime/lineintime/storage/object"
)

type Exporter struct {
	db      *sql.DB
	objects object.Store
	log     *zap.SugaredLogger
	dsn     string
	scratch string
	version string
	now     func() time.Time
}

func New(db *sql.DB, objects object.Store, log *zap.SugaredLogger, dsn string, cfg config.Export) *Exporter {
	scratch := cfg.ScratchDir
	if scratch == "" {
		scratch = os.TempDir()
	}
	return &Exporter{
		db:      db,
		objects: objects,
		log:     log,
		dsn:     dsn,
		scratch: scratch,
		version: cfg.Version,
		now:     time.Now,
	}
}

// Job is one finished archive on disk. The caller streams Path to the
// client and must call Cleanup when done; Cleanup is idempotent and
// removes both the archive and its staging directory.
type Job struct {
	Path        string
	Filename    string
	ContentType string

	scratch string
	once    sync.Once
	log     *zap.SugaredLogger
}

func (j *Job) Cleanup() {
	j.once.Do(func() {
		for _, p := range []string{j.scratch, j.Path} {
			if p == "" {
				continue
			}
			if err := os.RemoveAll(p); err != nil {
				j.log.Warnw("could not remove export artifact", "path", p, "error", err)
			}
		}
	})
}

// runPgDump shells out to pg_dump. Swapped out in tests.
var runPgDump = func(ctx context.Context, dsn, outPath string) error {
	cmd := exec.CommandContext(ctx, "pg_dump", "--dbname="+dsn, "--format=plain", "--file="+outPath)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("pg_dump: %v: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

var scratchNameReplacer = strings.NewReplacer(":", "-", "/", "-", ".", "-")

func (e *Exporter) newScratchDir(kind, callerID string) (string, error) {
	name := scratchNameReplacer.Replace(
		fmt.Sprintf("%s-%s-%s", kind, callerID, e.now().UTC().Format(time.RFC3339)))
	dir := filepath.Join(e.scratch, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating scratch dir: %w", err)
	}
	return dir, nil
}

func (e *Exporter) mirrorObjects(ctx context.Context, prefix, destDir string) (int, error) {
	// Cancelling on return releases the listing producer when the loop
	// bails before draining the channel.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	count := 0
	for entry := range e.objects.List(ctx, prefix) {
		if entry.Err != nil {
			return count, fmt.Errorf("listing %s: %w", prefix, entry.Err)
		}
		local := filepath.Join(destDir, filepath.FromSlash(entry.Key))
		if err := e.objects.Fetch(ctx, entry.Key, local); err != nil {
			return count, fmt.Errorf("fetching %s: %w", entry.Key, err)
		}
		count++
	}
	return count, nil
}

func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// BuildFamilyExport stages a whole-family export and packs it into a
// zip archive. format selects json or csv for the data file; when
// includeMedia is set every original media object is mirrored into the
// archive. The scratch directory is removed on every failure path.
func (e *Exporter) BuildFamilyExport(ctx context.Context, format string, includeMedia bool, callerID string) (job *Job, err error) {
	dir, err := e.newScratchDir("export-family", callerID)
	if err != nil {
		return nil, err
	}

	archivePath := dir + ".zip"
	defer func() {
		if err != nil {
			os.RemoveAll(dir)
			os.RemoveAll(archivePath)
		}
	}()

	data, err := e.FamilyData(ctx)
	if err != nil {
		return nil, fmt.Errorf("dumping family data: %w", err)
	}

	switch format {
	case "csv":
		f, err := os.Create(filepath.Join(dir, "memories.csv"))
		if err != nil {
			return nil, err
		}
		if err := WriteCSV(f, data.Sections()); err != nil {
			f.Close()
			return nil, fmt.Errorf("writing csv: %w", err)
		}
		if err := f.Close(); err != nil {
			return nil, err
		}
	default:
		if err := writeJSONFile(filepath.Join(dir, "memories.json"), data); err != nil {
			return nil, fmt.Errorf("writing json: %w", err)
		}
	}

	if includeMedia {
		total := 0
		for _, prefix := range []string{"media/", "thumbnails/"} {
			n, err := e.mirrorObjects(ctx, prefix, dir)
			if err != nil {
				return nil, err
			}
			total += n
		}
		e.log.Infow("mirrored objects into export", "count", total)
	}

	if err := zipDir(dir, archivePath); err != nil {
		return nil, fmt.Errorf("packing archive: %w", err)
	}

	return &Job{
		Path:        archivePath,
		Filename:    fmt.Sprintf("family-export-%s.zip", e.now().UTC().Format("2006-01-02")),
		ContentType: "application/zip",
		scratch:     dir,
		log:         e.log,
	}, nil
}

type backupManifest struct {
	Timestamp    time.Time `json:"timestamp"`
	Version      string    `json:"version"`
	BackupType   string    `json:"backup_type"`
	DatabaseSize int64     `json:"database_size"`
}

// BuildBackup stages a full backup: a plain-format pg_dump, a manifest,
// and a mirror of every stored object, packed as a gzipped tarball.
func (e *Exporter) BuildBackup(ctx context.Context, callerID string) (job *Job, err error) {
	dir, err := e.newScratchDir("backup", callerID)
	if err != nil {
		return nil, err
	}

	archivePath := dir + ".tar.gz"
	defer func() {
		if err != nil {
			os.RemoveAll(dir)
			os.RemoveAll(archivePath)
		}
	}()

	if err := runPgDump(ctx, e.dsn, filepath.Join(dir, "database.sql")); err != nil {
		return nil, err
	}

	var dbSize int64
	if err := e.db.QueryRowContext(ctx, e.databaseSizeQuery()).Scan(&dbSize); err != nil {
		return nil, fmt.Errorf("reading database size: %w", err)
	}

	manifest := backupManifest{
		Timestamp:    e.now().UTC(),
		Version:      e.version,
		BackupType:   "full",
		DatabaseSize: dbSize,
	}
	if err := writeJSONFile(filepath.Join(dir, "backup-info.json"), manifest); err != nil {
		return nil, fmt.Errorf("writing manifest: %w", err)
	}

	for _, prefix := range []string{"media/", "thumbnails/"} {
		if _, err := e.mirrorObjects(ctx, prefix, dir); err != nil {
			return nil, err
		}
	}

	if err := tarGzDir(dir, archivePath); err != nil {
		return nil, fmt.Errorf("packing archive: %w", err)
	}

	return &Job{
		Path:        archivePath,
		Filename:    fmt.Sprintf("backup-%s.tar.gz", e.now().UTC().Format("2006-01-02")),
		ContentType: "application/gzip",
		scratch:     dir,
		log:         e.log,
	}, nil
}

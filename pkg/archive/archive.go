package archive

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog"
)

// Extension is appended to the source path when no archive name is given
const Extension = ".tar.gz"

var (
	ErrNotFound = errors.New("source not found")
	ErrArchive  = errors.New("archive failed")
)

// Artifact is an archive produced from a source path
type Artifact struct {
	Path       string // Archive location on disk
	SourcePath string // File or directory that was archived
	Size       int64  // Archive size in bytes
	Entries    int    // Number of tar entries written
}

// Archiver packs a file or directory tree into a gzip-compressed tarball
type Archiver struct {
	logger zerolog.Logger
	level  int
}

// New creates an archiver using the default gzip compression level
func New(logger zerolog.Logger) *Archiver {
	return &Archiver{
		logger: logger.With().Str("component", "archiver").Logger(),
		level:  gzip.DefaultCompression,
	}
}

// WithLevel returns a copy of the archiver using the given gzip level
func (a *Archiver) WithLevel(level int) *Archiver {
	cp := *a
	cp.level = level
	return &cp
}

// ArchivePath returns where the archive for sourcePath is written.
// An empty name yields "<sourcePath>.tar.gz"; a relative name is placed
// next to the source.
func ArchivePath(sourcePath, archiveName string) string {
	if archiveName == "" {
		return filepath.Clean(sourcePath) + Extension
	}
	if filepath.IsAbs(archiveName) {
		return archiveName
	}
	return filepath.Join(filepath.Dir(filepath.Clean(sourcePath)), archiveName)
}

// Compress archives sourcePath. Entry names are relative to the source's
// parent directory, so /data/report/a.txt is stored as report/a.txt.
func (a *Archiver) Compress(ctx context.Context, sourcePath, archiveName string) (Artifact, error) {
	sourcePath = filepath.Clean(sourcePath)
	archivePath := ArchivePath(sourcePath, archiveName)

	log := a.logger.With().
		Str("source", sourcePath).
		Str("archive", archivePath).
		Logger()

	srcInfo, err := os.Stat(sourcePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Error().Msg("source not found")
			return Artifact{}, fmt.Errorf("%w: %s", ErrNotFound, sourcePath)
		}
		log.Error().Err(err).Msg("failed to stat source")
		return Artifact{}, fmt.Errorf("%w: %w", ErrArchive, err)
	}

	// Creating the archive would truncate the source
	if dstInfo, err := os.Stat(archivePath); err == nil && os.SameFile(srcInfo, dstInfo) {
		log.Error().Msg("archive path is the source itself")
		return Artifact{}, fmt.Errorf("%w: archive path %s is the source", ErrArchive, archivePath)
	}

	log.Info().Msg("creating archive")
	start := time.Now()

	entries, err := a.write(ctx, sourcePath, archivePath)
	if err != nil {
		os.Remove(archivePath) // Clean up partial archive
		log.Error().Err(err).Msg("failed to create archive")
		return Artifact{}, fmt.Errorf("%w: %w", ErrArchive, err)
	}

	info, err := os.Stat(archivePath)
	if err != nil {
		log.Error().Err(err).Msg("archive missing after write")
		return Artifact{}, fmt.Errorf("%w: %w", ErrArchive, err)
	}

	log.Info().
		Int("entries", entries).
		Int64("size_bytes", info.Size()).
		Dur("duration", time.Since(start)).
		Msg("created archive")

	return Artifact{
		Path:       archivePath,
		SourcePath: sourcePath,
		Size:       info.Size(),
		Entries:    entries,
	}, nil
}

func (a *Archiver) write(ctx context.Context, sourcePath, archivePath string) (int, error) {
	file, err := os.Create(archivePath)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	gz, err := gzip.NewWriterLevel(file, a.level)
	if err != nil {
		return 0, err
	}
	tw := tar.NewWriter(gz)

	entries, err := addTree(ctx, tw, sourcePath, archivePath)
	if err != nil {
		return entries, err
	}

	if err := tw.Close(); err != nil {
		return entries, fmt.Errorf("close tar stream: %w", err)
	}
	if err := gz.Close(); err != nil {
		return entries, fmt.Errorf("close gzip stream: %w", err)
	}
	if err := file.Close(); err != nil {
		return entries, fmt.Errorf("close archive file: %w", err)
	}

	return entries, nil
}

func addTree(ctx context.Context, tw *tar.Writer, sourcePath, archivePath string) (int, error) {
	baseDir := filepath.Dir(sourcePath)

	// Skip the archive itself when it is written inside the source tree
	skip, _ := filepath.Abs(archivePath)

	entries := 0
	err := filepath.WalkDir(sourcePath, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if abs, err := filepath.Abs(path); err == nil && abs == skip {
			return nil
		}

		rel, err := filepath.Rel(baseDir, path)
		if err != nil {
			return fmt.Errorf("compute entry name for %s: %w", path, err)
		}

		if err := addEntry(tw, path, filepath.ToSlash(rel), d); err != nil {
			return err
		}
		entries++
		return nil
	})

	return entries, err
}

func addEntry(tw *tar.Writer, path, name string, d fs.DirEntry) error {
	info, err := d.Info()
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	var link string
	if info.Mode()&fs.ModeSymlink != 0 {
		if link, err = os.Readlink(path); err != nil {
			return fmt.Errorf("read link %s: %w", path, err)
		}
	}

	hdr, err := tar.FileInfoHeader(info, link)
	if err != nil {
		return fmt.Errorf("build header for %s: %w", path, err)
	}
	hdr.Name = name
	if info.IsDir() && !strings.HasSuffix(hdr.Name, "/") {
		hdr.Name += "/"
	}

	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("write header for %s: %w", path, err)
	}

	if !info.Mode().IsRegular() {
		return nil
	}

	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	if _, err := io.Copy(tw, src); err != nil {
		return fmt.Errorf("copy %s: %w", path, err)
	}
	return nil
}

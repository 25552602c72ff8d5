package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/video-stream/transcript-studio/internal/subtitle"
)

const manifestName = "manifest.json"

var (
	ErrNotFound     = errors.New("artifact not found")
	ErrInvalidJobID = errors.New("invalid job id")
)

// Mirror receives a copy of every saved artifact.
type Mirror interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// Manifest describes the artifacts saved for one job.
type Manifest struct {
	JobID     string                     `json:"job_id"`
	Title     string                     `json:"title"`
	Name      string                     `json:"name"`
	Files     map[subtitle.Format]string `json:"files"`
	Errors    map[subtitle.Format]string `json:"errors,omitempty"`
	CreatedAt time.Time                  `json:"created_at"`
	UpdatedAt time.Time                  `json:"updated_at"`
}

type FileEntry struct {
	Name   string          `json:"name"`
	Format subtitle.Format `json:"format"`
	Size   int64           `json:"size"`
}

// Store keeps rendered transcripts under <base>/<jobID>/ and staged uploads
// under the upload directory.
type Store struct {
	fs        afero.Fs
	base      string
	uploadDir string
	mirror    Mirror
	logger    *zap.Logger
	now       func() time.Time
}

func New(fs afero.Fs, base, uploadDir string, logger *zap.Logger) (*Store, error) {
	for _, dir := range []string{base, uploadDir} {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return &Store{
		fs:        fs,
		base:      base,
		uploadDir: uploadDir,
		logger:    logger.Named("storage"),
		now:       time.Now,
	}, nil
}

// SetMirror enables mirroring of saved artifacts.
func (s *Store) SetMirror(m Mirror) {
	s.mirror = m
}

func (s *Store) jobDir(jobID string) (string, error) {
	if _, err := uuid.Parse(jobID); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidJobID, jobID)
	}
	return filepath.Join(s.base, jobID), nil
}

// Save writes every successfully rendered artifact to the job directory
// and records per-format failures in the manifest. Files left from an
// earlier save under a different name are removed.
func (s *Store) Save(ctx context.Context, jobID, title string, artifacts []subtitle.Artifact) (*Manifest, error) {
	dir, err := s.jobDir(jobID)
	if err != nil {
		return nil, err
	}
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create job dir: %w", err)
	}

	now := s.now().UTC()
	m := &Manifest{
		JobID:     jobID,
		Title:     title,
		Name:      PascalName(title),
		Files:     make(map[subtitle.Format]string),
		Errors:    make(map[subtitle.Format]string),
		CreatedAt: now,
		UpdatedAt: now,
	}
	prev, err := s.Manifest(jobID)
	if err == nil {
		m.CreatedAt = prev.CreatedAt
	}

	for _, a := range artifacts {
		if a.Err != nil {
			m.Errors[a.Format] = a.Err.Error()
			continue
		}
		name := m.Name + a.Format.Extension()
		if err := s.writeAtomic(dir, name, []byte(a.Content)); err != nil {
			m.Errors[a.Format] = err.Error()
			continue
		}
		m.Files[a.Format] = name
		s.mirrorFile(ctx, jobID, name, []byte(a.Content), a.Format.ContentType())
	}
	if len(m.Errors) == 0 {
		m.Errors = nil
	}

	if prev != nil {
		for f, old := range prev.Files {
			if m.Files[f] != old {
				_ = s.fs.Remove(filepath.Join(dir, old))
			}
		}
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	if err := s.writeAtomic(dir, manifestName, data); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}

	s.logger.Info("artifacts saved",
		zap.String("job_id", jobID),
		zap.String("name", m.Name),
		zap.Int("files", len(m.Files)),
		zap.Int("failed", len(m.Errors)),
	)
	return m, nil
}

func (s *Store) mirrorFile(ctx context.Context, jobID, name string, data []byte, contentType string) {
	if s.mirror == nil {
		return
	}
	key := jobID + "/" + name
	if err := s.mirror.Put(ctx, key, data, contentType); err != nil {
		s.logger.Warn("mirror upload failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *Store) writeAtomic(dir, name string, data []byte) error {
	tmp, err := afero.TempFile(s.fs, dir, "."+name+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := s.fs.Rename(tmpName, filepath.Join(dir, name)); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}

// Manifest loads the manifest written by the last Save for jobID.
func (s *Store) Manifest(jobID string) (*Manifest, error) {
	dir, err := s.jobDir(jobID)
	if err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(s.fs, filepath.Join(dir, manifestName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: job %s", ErrNotFound, jobID)
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return &m, nil
}

// ReadArtifact returns the saved content of one format.
func (s *Store) ReadArtifact(jobID string, f subtitle.Format) (string, error) {
	m, err := s.Manifest(jobID)
	if err != nil {
		return "", err
	}
	name, ok := m.Files[f]
	if !ok {
		return "", fmt.Errorf("%w: no %s artifact for job %s", ErrNotFound, f, jobID)
	}
	data, err := afero.ReadFile(s.fs, filepath.Join(s.base, jobID, name))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	return string(data), nil
}

// Open opens a saved file for download. Names that escape the job
// directory or refer to hidden files are refused.
func (s *Store) Open(jobID, name string) (afero.File, os.FileInfo, error) {
	dir, err := s.jobDir(jobID)
	if err != nil {
		return nil, nil, err
	}

	// Prevent path traversal
	full := filepath.Join(dir, name)
	if !strings.HasPrefix(full, dir+string(filepath.Separator)) || strings.HasPrefix(filepath.Base(full), ".") {
		return nil, nil, os.ErrPermission
	}

	f, err := s.fs.Open(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, nil, os.ErrPermission
	}
	return f, info, nil
}

// List returns the rendered files of a job in format order.
func (s *Store) List(jobID string) ([]FileEntry, error) {
	m, err := s.Manifest(jobID)
	if err != nil {
		return nil, err
	}
	var result []FileEntry
	for f, name := range m.Files {
		fe := FileEntry{Name: name, Format: f}
		if info, err := s.fs.Stat(filepath.Join(s.base, jobID, name)); err == nil {
			fe.Size = info.Size()
		}
		result = append(result, fe)
	}
	sort.Slice(result, func(i, j int) bool {
		return formatRank(result[i].Format) < formatRank(result[j].Format)
	})
	return result, nil
}

func formatRank(f subtitle.Format) int {
	for i, known := range subtitle.Formats {
		if known == f {
			return i
		}
	}
	return len(subtitle.Formats)
}

// StageUpload copies an uploaded file into a fresh directory under the
// upload path and returns its location. RemoveStaged deletes it again.
func (s *Store) StageUpload(name string, r io.Reader) (string, error) {
	dir := filepath.Join(s.uploadDir, uuid.New().String())
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	clean := SanitizeFilename(filepath.Base(name))
	if clean == "" || strings.HasPrefix(clean, ".") {
		clean = "upload" + strings.ToLower(filepath.Ext(name))
	}
	path := filepath.Join(dir, clean)

	f, err := s.fs.Create(path)
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = s.fs.RemoveAll(dir)
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = s.fs.RemoveAll(dir)
		return "", fmt.Errorf("close upload: %w", err)
	}
	return path, nil
}

// RemoveStaged removes a file returned by StageUpload together with its
// directory, or a directory returned by ScratchDir.
func (s *Store) RemoveStaged(path string) error {
	uploads := filepath.Clean(s.uploadDir)
	dir := filepath.Clean(path)
	if filepath.Dir(dir) != uploads {
		dir = filepath.Dir(dir)
	}
	if filepath.Dir(dir) != uploads {
		return os.ErrPermission
	}
	return s.fs.RemoveAll(dir)
}

// ScratchDir creates a temporary working directory under the upload path
// for downloads and intermediate audio.
func (s *Store) ScratchDir(prefix string) (string, error) {
	dir := filepath.Join(s.uploadDir, prefix+"-"+uuid.New().String())
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create scratch dir: %w", err)
	}
	return dir, nil
}

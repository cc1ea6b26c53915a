package scan

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	ignore "github.com/sabhiram/go-gitignore"

	"github2file/internal/artifact"
	"github2file/internal/safeio"
)

var skipDirs = map[string]bool{
	".git": true, ".hg": true, ".svn": true,
	"node_modules": true, "dist": true, "build": true, "target": true,
	".next": true, ".cache": true,
}

// LocalSource reads an already checked-out repository directory.
type LocalSource struct {
	Root    string
	Options Options
}

func (s LocalSource) Describe() string { return s.Root }

func (s LocalSource) Files(ctx context.Context) ([]artifact.FileRecord, error) {
	sfs, err := safeio.NewSafeFS(s.Root)
	if err != nil {
		return nil, &IngestionError{Source: s.Root, Err: err}
	}
	gi, err := loadGitignore(sfs.Root())
	if err != nil {
		return nil, &IngestionError{Source: s.Root, Err: err}
	}

	var entries []rawFile
	err = fs.WalkDir(sfs, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if p == "." {
			return nil
		}
		if d.IsDir() {
			if skipDirs[d.Name()] || (gi != nil && gi.MatchesPath(p+"/")) {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || (gi != nil && gi.MatchesPath(p)) {
			return nil
		}
		b, err := sfs.ReadFile(filepath.FromSlash(p))
		if err != nil {
			s.Options.logger().WithError(err).WithField("path", p).Warn("scan: unreadable file skipped")
			return nil
		}
		entries = append(entries, rawFile{path: p, content: b})
		return nil
	})
	if err != nil {
		return nil, &IngestionError{Source: s.Root, Err: err}
	}
	files, err := collect(entries, s.Options)
	if err != nil {
		return nil, &IngestionError{Source: s.Root, Err: err}
	}
	return files, nil
}

func loadGitignore(root string) (*ignore.GitIgnore, error) {
	p := filepath.Join(root, ".gitignore")
	if _, err := os.Stat(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return ignore.CompileIgnoreFile(p)
}

// pkg/index/sync.go
package index

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

const (
	RepoURL    = "https://github.com/arc-language/upkg"
	RepoBranch = "main"
	// DepsDir is the registry directory inside the repository
	DepsDir = "deps"
)

// Options configure a sync
type Options struct {
	URL    string
	Branch string
	// Depth limits history. Zero fetches everything.
	Depth    int
	Progress io.Writer
	// Fs receives the registry. Defaults to the OS filesystem.
	Fs     afero.Fs
	Logger logrus.FieldLogger
}

// DefaultOptions clones the upstream registry shallowly
func DefaultOptions() Options {
	return Options{URL: RepoURL, Branch: RepoBranch, Depth: 1}
}

// Sync clones the registry repository and replaces dst with its deps/
// directory. It returns the number of files copied. dst is only replaced
// once the new copy is complete.
func Sync(ctx context.Context, dst string, opts Options) (int, error) {
	if opts.URL == "" {
		opts.URL = RepoURL
	}
	if opts.Branch == "" {
		opts.Branch = RepoBranch
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	logger := opts.Logger
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}

	tempDir, err := os.MkdirTemp("", "minishell-clone-*")
	if err != nil {
		return 0, fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	logger.WithField("url", opts.URL).Debug("cloning package registry")

	_, err = git.PlainCloneContext(ctx, tempDir, false, &git.CloneOptions{
		URL:           opts.URL,
		ReferenceName: plumbing.NewBranchReferenceName(opts.Branch),
		SingleBranch:  true,
		Depth:         opts.Depth,
		Progress:      opts.Progress,
	})
	if err != nil {
		return 0, fmt.Errorf("git clone failed: %w", err)
	}

	src := filepath.Join(tempDir, DepsDir)
	if info, err := os.Stat(src); err != nil || !info.IsDir() {
		return 0, fmt.Errorf("repository %s has no %s/ directory", opts.URL, DepsDir)
	}

	staging := dst + ".new"
	if err := opts.Fs.RemoveAll(staging); err != nil {
		return 0, fmt.Errorf("clearing %s: %w", staging, err)
	}
	n, err := copyDir(afero.NewOsFs(), src, opts.Fs, staging)
	if err != nil {
		_ = opts.Fs.RemoveAll(staging)
		return 0, fmt.Errorf("copying registry: %w", err)
	}

	if err := opts.Fs.RemoveAll(dst); err != nil {
		return 0, fmt.Errorf("removing old registry: %w", err)
	}
	if err := opts.Fs.Rename(staging, dst); err != nil {
		return 0, fmt.Errorf("installing registry: %w", err)
	}

	logger.WithField("files", n).Debugf("registry synced into %s", dst)
	return n, nil
}

func copyFile(srcFs afero.Fs, src string, dstFs afero.Fs, dst string) error {
	in, err := srcFs.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := dstFs.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

func copyDir(srcFs afero.Fs, src string, dstFs afero.Fs, dst string) (int, error) {
	entries, err := afero.ReadDir(srcFs, src)
	if err != nil {
		return 0, err
	}

	if err := dstFs.MkdirAll(dst, 0o755); err != nil {
		return 0, err
	}

	count := 0
	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		if entry.IsDir() {
			n, err := copyDir(srcFs, srcPath, dstFs, dstPath)
			if err != nil {
				return count, err
			}
			count += n
			continue
		}
		if !entry.Mode().IsRegular() {
			continue
		}
		if err := copyFile(srcFs, srcPath, dstFs, dstPath); err != nil {
			return count, err
		}
		count++
	}

	return count, nil
}

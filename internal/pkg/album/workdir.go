package album

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"sync"

	"github.com/internetarchive/Ripley/internal/pkg/utils"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// Titler is the part of a ripper the album needs to name its directory
type Titler interface {
	Host() string
	GID(u *url.URL) (string, error)
	AlbumTitle(ctx context.Context, u *url.URL) (string, error)
}

// FallbackTitle is the generic album title: <host>_<gid>
func FallbackTitle(titler Titler, u *url.URL) (string, error) {
	gid, err := titler.GID(u)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrTitle, err)
	}

	return titler.Host() + "_" + gid, nil
}

// WorkingDirectoryResolver derives and creates, once, the directory an
// album is saved to.
type WorkingDirectoryResolver struct {
	sync.Mutex
	fs         afero.Fs
	baseDir    string
	saveTitles bool
	titler     Titler
	path       string
	log        *logrus.Entry
}

// NewWorkingDirectoryResolver returns a resolver creating album directories under baseDir
func NewWorkingDirectoryResolver(fs afero.Fs, baseDir string, saveTitles bool, titler Titler, logger *logrus.Entry) *WorkingDirectoryResolver {
	return &WorkingDirectoryResolver{
		fs:         fs,
		baseDir:    baseDir,
		saveTitles: saveTitles,
		titler:     titler,
		log:        logger,
	}
}

// Resolve returns the working directory of the album at u, creating it on
// the first call. Later calls return the same path. ctx bounds the title
// lookup, which may request the album page.
func (r *WorkingDirectoryResolver) Resolve(ctx context.Context, u *url.URL) (string, error) {
	r.Lock()
	defer r.Unlock()

	if r.path != "" {
		return r.path, nil
	}

	base, err := r.canonicalBase()
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrWorkingDir, err)
	}

	title, err := r.title(ctx, u)
	if err != nil {
		return "", err
	}

	r.log.WithField("title", title).Debug("Using album title")

	path := utils.OriginalDirectory(r.fs, filepath.Join(base, utils.FilesystemSafe(title)))

	exists, err := afero.DirExists(r.fs, path)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrWorkingDir, err)
	}

	if !exists {
		r.log.WithField("path", utils.RemoveCWD(path)).Info("Creating directory")

		if err := r.fs.MkdirAll(path, 0755); err != nil {
			return "", fmt.Errorf("%w: %s", ErrWorkingDir, err)
		}
	}

	r.path = path
	r.log.WithField("path", path).Debug("Set working directory")

	return r.path, nil
}

func (r *WorkingDirectoryResolver) title(ctx context.Context, u *url.URL) (string, error) {
	if r.saveTitles {
		title, err := r.titler.AlbumTitle(ctx, u)
		if err == nil && strings.TrimSpace(title) != "" {
			return title, nil
		}

		if err != nil {
			r.log.WithField("err", err.Error()).Debug("No album title, using fallback")
		}
	}

	return FallbackTitle(r.titler, u)
}

// canonicalBase resolves symlinks on the real filesystem, other
// filesystems only get an absolute path
func (r *WorkingDirectoryResolver) canonicalBase() (string, error) {
	base, err := filepath.Abs(r.baseDir)
	if err != nil {
		return "", err
	}

	if _, ok := r.fs.(*afero.OsFs); ok {
		if resolved, err := filepath.EvalSymlinks(base); err == nil {
			return resolved, nil
		}
	}

	return base, nil
}

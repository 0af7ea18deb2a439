package fetch

import (
	"net/url"
	"path"
	"strconv"

	"github.com/internetarchive/Ripley/internal/pkg/utils"
	"github.com/zeebo/xxh3"
)

// FileName derives the on-disk name of an item from its URL. URLs without a
// usable base name get a stable hash of the whole URL instead.
func FileName(u *url.URL) string {
	base := path.Base(u.Path)

	if unescaped, err := url.PathUnescape(base); err == nil {
		base = unescaped
	}

	if base == "" || base == "." || base == "/" {
		return strconv.FormatUint(xxh3.HashString(utils.CanonicalURL(u)), 16)
	}

	return utils.FilesystemSafe(base)
}

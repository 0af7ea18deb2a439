package utils

import (
	"errors"
	"net/url"
	"strings"

	"github.com/asaskevich/govalidator"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/idna"
)

// ErrInvalidURL is returned by ValidateURL
var ErrInvalidURL = errors.New("not a valid URL")

// CanonicalURL returns the textual form used as an item identity and
// written to urls.txt. The host is lowercased and IDNA encoded, the query re-encoded,
// the given URL is left untouched.
func CanonicalURL(u *url.URL) string {
	var err error

	c := *u
	if u.User != nil {
		user := *u.User
		c.User = &user
	}

	if c.RawQuery != "" {
		c.RawQuery = c.Query().Encode()
	}

	tempHost, err := idna.ToASCII(strings.ToLower(c.Hostname()))
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"url": u.String(),
			"err": err.Error(),
		}).Debug("could not IDNA encode host")
		tempHost = c.Hostname()
	}

	// IPv6 literals need their brackets back
	if strings.Contains(tempHost, ":") && !(strings.HasPrefix(tempHost, "[") && strings.HasSuffix(tempHost, "]")) {
		tempHost = "[" + tempHost + "]"
	}

	if port := c.Port(); len(port) > 0 {
		c.Host = tempHost + ":" + port
	} else {
		c.Host = tempHost
	}

	return c.String()
}

// ValidateURL validates a *url.URL, only absolute http(s) URLs are accepted
func ValidateURL(u *url.URL) error {
	if u == nil {
		return ErrInvalidURL
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return ErrInvalidURL
	}

	if !govalidator.IsURL(CanonicalURL(u)) {
		return ErrInvalidURL
	}

	return nil
}

package album

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// URLListFile is written in the working directory in URLs-only mode
const URLListFile = "urls.txt"

// recordURL appends identity to urls.txt and settles it right away. A
// failed write is recorded as an error rather than dropped.
func (a *Album) recordURL(workingDir, identity string) {
	path := filepath.Join(workingDir, URLListFile)

	if err := appendLine(a.fs, path, identity); err != nil {
		a.log.WithFields(logrus.Fields{
			"path": path,
			"err":  err.Error(),
		}).Error("Error while writing to " + URLListFile)

		a.ledger.MarkErrored(identity, err.Error())
		return
	}

	a.ledger.MarkCompleted(identity, path)
}

func appendLine(fs afero.Fs, path, line string) (err error) {
	f, err := fs.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()

	_, err = f.WriteString(line + "\n")

	return err
}

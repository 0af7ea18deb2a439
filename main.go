// Ripley downloads whole albums from the web: it finds every item of an
// album, downloads each of them once and saves them in a directory named
// after the album.
package main

import (
	"fmt"
	"os"

	"github.com/internetarchive/Ripley/cmd"
)

func main() {
	if err := cmd.Run(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

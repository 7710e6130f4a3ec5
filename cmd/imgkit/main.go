// Command imgkit uploads images to S3-compatible buckets or ImgLa
// instances, keeps the local upload history and serves the same commands
// over a loopback HTTP bridge.
package main

import (
	"fmt"
	"os"

	"github.com/kbukum/imgkit/errors"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errors.Message(err))
		os.Exit(1)
	}
}

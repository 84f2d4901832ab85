//go:build !linux && !darwin

package metadata

import (
	"io/fs"
	"time"
)

func birthTime(_ string, _ fs.FileInfo) *time.Time {
	return nil
}

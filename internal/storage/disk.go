package storage

import (
	"io/fs"
	"os"
	"path/filepath"
)

// DiskUsageBytes sums the on-disk size of the given paths. A path may name a
// file or a directory (walked recursively). Empty and missing paths count as
// zero; any other error aborts the sum.
func DiskUsageBytes(paths ...string) (int64, error) {
	var total int64
	for _, p := range paths {
		if p == "" {
			continue
		}
		n, err := pathSize(p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return 0, err
		}
		total += n
	}
	return total, nil
}

func pathSize(p string) (int64, error) {
	info, err := os.Stat(p)
	if err != nil {
		return 0, err
	}
	if !info.IsDir() {
		return info.Size(), nil
	}

	var total int64
	err = filepath.WalkDir(p, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	return total, err
}

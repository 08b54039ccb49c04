package commands

import (
	"fmt"
	"os"
	"path/filepath"
)

// lock is a lock file held for the duration of an endorse run.
type lock struct {
	file string
}

func acquire(dir, name string) (*lock, error) {
	if err := os.MkdirAll(dir, 0770); err != nil {
		return nil, err
	}

	file := filepath.Join(dir, name)
	f, err := os.OpenFile(file, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0660)
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("%v is locked by another run (remove %v if that run is no longer active)", dir, file)
		}

		return nil, err
	}

	defer f.Close()

	if _, err := fmt.Fprintf(f, "%d\n", os.Getpid()); err != nil {
		os.Remove(file)
		return nil, err
	}

	return &lock{file: file}, nil
}

func (l *lock) release() error {
	return os.Remove(l.file)
}

package endorse

import (
	"crypto/rand"
	"os"
	"path/filepath"
	"sync"

	"github.com/oklog/ulid/v2"
)

var ids = struct {
	sync.Mutex
	entropy *ulid.MonotonicEntropy
}{
	entropy: ulid.Monotonic(rand.Reader, 0),
}

// NewID returns a new, lexically sortable, unique identifier.
func NewID() string {
	ids.Lock()
	defer ids.Unlock()

	return ulid.MustNew(ulid.Now(), ids.entropy).String()
}

// Scratch is a per-subject working directory for intermediate files. Everything in it is
// removed when the subject is finished, whatever the outcome.
type Scratch struct {
	dir string
}

func NewScratch(workdir string) (*Scratch, error) {
	dir := filepath.Join(workdir, "endorser-"+NewID())
	if err := os.MkdirAll(dir, 0770); err != nil {
		return nil, err
	}

	return &Scratch{dir: dir}, nil
}

func (s *Scratch) Dir() string {
	return s.dir
}

// File returns a unique path inside the scratch directory. The file is not created.
func (s *Scratch) File(prefix, ext string) string {
	return filepath.Join(s.dir, prefix+"-"+NewID()+ext)
}

func (s *Scratch) Remove() error {
	return os.RemoveAll(s.dir)
}

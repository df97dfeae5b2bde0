package store

import (
	"sync"
	"time"

	"github.com/RLabs-Inc/memory/internal/models"
)

// primerMu is the per-installation exclusive lock spec.md §5 requires
// around personal primer read-modify-write. One process, one lock.
var primerMu sync.Mutex

// ReadPrimer returns the personal primer, or nil if it has never been
// created. Only the Lifecycle Manager may create it (spec.md §4.3.4).
func (s *Store) ReadPrimer() (*models.PersonalPrimer, error) {
	primerMu.Lock()
	defer primerMu.Unlock()

	root := s.projectRoot(models.GlobalProjectID)
	if !primerExists(root) {
		return nil, nil
	}
	return readPrimerFile(root)
}

// WritePrimer creates or updates the personal primer. Callers hold
// primerMu for the whole read-modify-write via WithPrimerLock so a
// concurrent writer cannot interleave a read and a write.
func (s *Store) WritePrimer(content string) error {
	primerMu.Lock()
	defer primerMu.Unlock()

	root := s.projectRoot(models.GlobalProjectID)
	p := &models.PersonalPrimer{Content: content, UpdatedAt: time.Now().Unix()}
	return writePrimerFile(root, p)
}

// WithPrimerLock runs fn holding the primer's exclusive lock, passing the
// current primer (nil if none exists yet) so fn can merge and return the
// new content to persist. Persists fn's content unless fn returns an
// error or skip is true; returns fn's error or the write error.
func (s *Store) WithPrimerLock(fn func(current *models.PersonalPrimer) (content string, skip bool, err error)) error {
	primerMu.Lock()
	defer primerMu.Unlock()

	root := s.projectRoot(models.GlobalProjectID)
	var current *models.PersonalPrimer
	if primerExists(root) {
		c, err := readPrimerFile(root)
		if err != nil {
			return err
		}
		current = c
	}

	content, skip, err := fn(current)
	if err != nil || skip {
		return err
	}

	p := &models.PersonalPrimer{Content: content, UpdatedAt: time.Now().Unix()}
	return writePrimerFile(root, p)
}

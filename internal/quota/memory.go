package quota

import (
	"sync"
	"time"

	"poster-gen-backend/internal/errs"
)

// MemoryStore is an in-process Store. It backs tests and the degraded
// no-database mode; dosage records do not survive a restart.
type MemoryStore struct {
	mu        sync.Mutex
	records   map[string]*memoryRecord
	allowance int

	// now is swappable in tests to cross day boundaries.
	now func() time.Time
}

type memoryRecord struct {
	dosage    int
	resettime string
}

func NewMemoryStore(allowance int) *MemoryStore {
	if allowance <= 0 {
		allowance = DefaultDailyDosage
	}
	return &MemoryStore{
		records:   make(map[string]*memoryRecord),
		allowance: allowance,
		now:       time.Now,
	}
}

// SetClock overrides the time source. Test hook.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryStore) Check(uid string) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[uid]
	if !ok {
		return Status{}, errs.ErrNotFound
	}
	s.resetIfStale(rec)
	return Status{Dosage: rec.dosage, CanGenerate: rec.dosage > 0}, nil
}

func (s *MemoryStore) Consume(uid string) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[uid]
	if !ok {
		return Status{}, errs.ErrNotFound
	}
	s.resetIfStale(rec)
	if rec.dosage <= 0 {
		return Status{Dosage: 0, CanGenerate: false}, errs.ErrQuotaExhausted
	}
	rec.dosage--
	return Status{Dosage: rec.dosage, CanGenerate: rec.dosage > 0}, nil
}

func (s *MemoryStore) Reset(uid string) (Status, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := DayString(s.now())
	rec, ok := s.records[uid]
	if !ok {
		rec = &memoryRecord{}
		s.records[uid] = rec
	}
	rec.dosage = s.allowance
	rec.resettime = today
	return Status{Dosage: rec.dosage, CanGenerate: true}, today, nil
}

func (s *MemoryStore) Ensure(uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[uid]; ok {
		return nil
	}
	s.records[uid] = &memoryRecord{
		dosage:    s.allowance,
		resettime: DayString(s.now()),
	}
	return nil
}

// Seed installs a record with an explicit dosage and resettime. Test hook.
func (s *MemoryStore) Seed(uid string, dosage int, resettime string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[uid] = &memoryRecord{dosage: dosage, resettime: resettime}
}

func (s *MemoryStore) resetIfStale(rec *memoryRecord) {
	today := DayString(s.now())
	if IsStale(rec.resettime, today) {
		rec.dosage = s.allowance
		rec.resettime = today
	}
}

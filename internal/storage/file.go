package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/5-07/sweeten/internal"
	"github.com/samber/lo"
)

type vitalRecord struct {
	UserID string `json:"userId"`
	internal.VitalEntry
}

type planRecord struct {
	UserID string `json:"userId"`
	internal.PlanDocument
}

type reminderRecord struct {
	UserID string `json:"userId"`
	internal.Reminder
}

type usageRecord struct {
	UserID string `json:"userId"`
	internal.UsageRecord
}

// FileStorage keeps everything in memory and writes each collection to its
// own JSON file shortly after it changes.
type FileStorage struct {
	vitals    map[string]map[string]internal.VitalEntry // userID -> date -> entry
	plans     map[string]internal.PlanDocument          // userID -> plan
	reminders map[string][]internal.Reminder            // userID -> reminders in insertion order
	usage     map[string][]internal.UsageRecord         // userID -> usage records
	mu        sync.RWMutex

	vitalsFile    string
	plansFile     string
	remindersFile string
	usageFile     string

	vitalsFlush    *flusher
	plansFlush     *flusher
	remindersFlush *flusher
	usageFlush     *flusher
	shutdownChan   chan struct{}
	wg             sync.WaitGroup
	logger         internal.Logger
}

// flusher batches save requests for one file.
type flusher struct {
	name   string
	signal chan struct{}
	delay  time.Duration
	save   func() error
}

func (f *flusher) mark() {
	select {
	case f.signal <- struct{}{}:
	default:
	}
}

func NewFileStorage(dataDir string, logger internal.Logger) (*FileStorage, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create data dir: %w", err)
	}
	s := &FileStorage{
		vitals:        make(map[string]map[string]internal.VitalEntry),
		plans:         make(map[string]internal.PlanDocument),
		reminders:     make(map[string][]internal.Reminder),
		usage:         make(map[string][]internal.UsageRecord),
		vitalsFile:    filepath.Join(dataDir, "vitals.json"),
		plansFile:     filepath.Join(dataDir, "plans.json"),
		remindersFile: filepath.Join(dataDir, "reminders.json"),
		usageFile:     filepath.Join(dataDir, "usage.json"),
		shutdownChan:  make(chan struct{}),
		logger:        logger,
	}

	if err := s.load(); err != nil {
		logger.Errorf("storage: failed to load data: %v", err)
		return nil, err
	}

	s.vitalsFlush = s.newFlusher("vitals", s.saveVitals)
	s.plansFlush = s.newFlusher("plans", s.savePlans)
	s.remindersFlush = s.newFlusher("reminders", s.saveReminders)
	s.usageFlush = s.newFlusher("usage", s.saveUsage)
	for _, f := range s.flushers() {
		s.wg.Add(1)
		go s.flushWorker(f)
	}
	return s, nil
}

func (s *FileStorage) flushers() []*flusher {
	return []*flusher{s.vitalsFlush, s.plansFlush, s.remindersFlush, s.usageFlush}
}

func (s *FileStorage) newFlusher(name string, save func() error) *flusher {
	return &flusher{name: name, signal: make(chan struct{}, 1), delay: 500 * time.Millisecond, save: save}
}

func readJSONFile(path string, into interface{}) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()
	if err := json.NewDecoder(file).Decode(into); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func (s *FileStorage) load() error {
	var vitals []vitalRecord
	var plans []planRecord
	var reminders []reminderRecord
	var usage []usageRecord
	if err := readJSONFile(s.vitalsFile, &vitals); err != nil {
		return err
	}
	if err := readJSONFile(s.plansFile, &plans); err != nil {
		return err
	}
	if err := readJSONFile(s.remindersFile, &reminders); err != nil {
		return err
	}
	if err := readJSONFile(s.usageFile, &usage); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range vitals {
		if s.vitals[v.UserID] == nil {
			s.vitals[v.UserID] = make(map[string]internal.VitalEntry)
		}
		s.vitals[v.UserID][v.Date] = v.VitalEntry
	}
	for _, p := range plans {
		s.plans[p.UserID] = p.PlanDocument
	}
	for _, r := range reminders {
		s.reminders[r.UserID] = append(s.reminders[r.UserID], r.Reminder)
	}
	for _, u := range usage {
		s.usage[u.UserID] = append(s.usage[u.UserID], u.UsageRecord)
	}
	return nil
}

func atomicWriteFileJSON(filePath string, data interface{}) error {
	tempFile := filePath + ".tmp"
	f, err := os.Create(tempFile)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}

	if err := f.Close(); err != nil {
		os.Remove(tempFile)
		return err
	}

	return os.Rename(tempFile, filePath)
}

func (s *FileStorage) saveVitals() error {
	s.mu.RLock()
	out := make([]vitalRecord, 0)
	for userID, byDate := range s.vitals {
		for _, v := range byDate {
			out = append(out, vitalRecord{UserID: userID, VitalEntry: v})
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].UserID != out[j].UserID {
			return out[i].UserID < out[j].UserID
		}
		return out[i].Date < out[j].Date
	})
	return atomicWriteFileJSON(s.vitalsFile, out)
}

func (s *FileStorage) savePlans() error {
	s.mu.RLock()
	out := make([]planRecord, 0, len(s.plans))
	for userID, p := range s.plans {
		out = append(out, planRecord{UserID: userID, PlanDocument: p})
	}
	s.mu.RUnlock()
	return atomicWriteFileJSON(s.plansFile, out)
}

func (s *FileStorage) saveReminders() error {
	s.mu.RLock()
	out := make([]reminderRecord, 0)
	for userID, rs := range s.reminders {
		out = append(out, lo.Map(rs, func(r internal.Reminder, _ int) reminderRecord {
			return reminderRecord{UserID: userID, Reminder: r}
		})...)
	}
	s.mu.RUnlock()
	return atomicWriteFileJSON(s.remindersFile, out)
}

func (s *FileStorage) saveUsage() error {
	s.mu.RLock()
	out := make([]usageRecord, 0)
	for userID, us := range s.usage {
		out = append(out, lo.Map(us, func(u internal.UsageRecord, _ int) usageRecord {
			return usageRecord{UserID: userID, UsageRecord: u}
		})...)
	}
	s.mu.RUnlock()
	return atomicWriteFileJSON(s.usageFile, out)
}

// flushWorker batches save operations to avoid frequent disk writes.
func (s *FileStorage) flushWorker(f *flusher) {
	defer s.wg.Done()
	timer := time.NewTimer(f.delay)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-f.signal:
			timer.Reset(f.delay)
		case <-timer.C:
			if err := f.save(); err != nil {
				s.logger.Errorf("storage: error saving %s: %v", f.name, err)
			}
		case <-s.shutdownChan:
			return
		}
	}
}

// Close stops the workers and writes every collection synchronously.
func (s *FileStorage) Close() error {
	close(s.shutdownChan)
	s.wg.Wait()

	var errs []error
	for _, f := range s.flushers() {
		if err := f.save(); err != nil {
			errs = append(errs, fmt.Errorf("storage: save %s: %w", f.name, err))
		}
	}
	return errors.Join(errs...)
}

// --- VitalsRepository ---
func (s *FileStorage) SaveVitals(ctx context.Context, userID string, entry internal.VitalEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.vitals[userID] == nil {
		s.vitals[userID] = make(map[string]internal.VitalEntry)
	}
	s.vitals[userID][entry.Date] = entry
	s.vitalsFlush.mark()
	return nil
}

func (s *FileStorage) GetVitals(ctx context.Context, userID, date string) (*internal.VitalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.vitals[userID][date]
	if !ok {
		return nil, fmt.Errorf("storage: vitals %s: %w", date, internal.ErrNotFound)
	}
	return &e, nil
}

func (s *FileStorage) ListRecentVitals(ctx context.Context, userID string, limit int) ([]internal.VitalEntry, error) {
	s.mu.RLock()
	entries := lo.Values(s.vitals[userID])
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].Date > entries[j].Date })
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// --- PlanRepository ---
func (s *FileStorage) SavePlan(ctx context.Context, userID string, doc internal.PlanDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc.Plan = append(json.RawMessage(nil), doc.Plan...)
	s.plans[userID] = doc
	s.plansFlush.mark()
	return nil
}

func (s *FileStorage) GetPlan(ctx context.Context, userID string) (*internal.PlanDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.plans[userID]
	if !ok {
		return nil, fmt.Errorf("storage: plan: %w", internal.ErrNotFound)
	}
	p.Plan = append(json.RawMessage(nil), p.Plan...)
	return &p, nil
}

// --- ReminderRepository ---
func (s *FileStorage) AddReminder(ctx context.Context, userID string, r internal.Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reminders[userID] = append(s.reminders[userID], r)
	s.remindersFlush.mark()
	return nil
}

func (s *FileStorage) ListReminders(ctx context.Context, userID string) ([]internal.Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]internal.Reminder{}, s.reminders[userID]...), nil
}

func (s *FileStorage) DeleteReminder(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := len(s.reminders[userID])
	s.reminders[userID] = lo.Reject(s.reminders[userID], func(r internal.Reminder, _ int) bool {
		return r.ID == id
	})
	if len(s.reminders[userID]) != before {
		s.remindersFlush.mark()
	}
	return nil
}

// --- UsageRepository ---
func (s *FileStorage) AddUsage(ctx context.Context, userID string, rec internal.UsageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usage[userID] = append(s.usage[userID], rec)
	s.usageFlush.mark()
	return nil
}

func (s *FileStorage) ListUsageSince(ctx context.Context, userID string, since time.Time) ([]internal.UsageRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.Filter(s.usage[userID], func(u internal.UsageRecord, _ int) bool {
		return !u.CreatedAt.Before(since)
	}), nil
}

// --- Compile-time assertions ---
var _ Store = (*FileStorage)(nil)

// Package settings provides the persistent store of configured broker
// accounts and hotkey presets: an in-memory model with JSON file
// persistence, save-time validation, pub/sub change events, and optional
// hot reload when the file is edited externally.
package settings

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"

	"hotdeck/internal/domain"
)

// Event describes one settings change for subscribers.
type Event struct {
	Type string `json:"type"` // "account", "preset", "reload"
	ID   string `json:"id,omitempty"`
}

// fileModel is the on-disk JSON shape.
type fileModel struct {
	Accounts []domain.BrokerAccount `json:"accounts"`
	Presets  []domain.HotkeyPreset  `json:"presets"`
}

// Store holds accounts and presets in memory with JSON persistence. It is
// read-only from the dispatch core's perspective; writes come from the
// settings API and the file watcher.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]domain.BrokerAccount
	presets  map[string]domain.HotkeyPreset
	filePath string
	log      *slog.Logger

	subsMu    sync.Mutex
	nextSubID int
	subs      map[int]chan Event
}

// NewStore creates a Store, loading persisted state from filePath if it
// exists.
func NewStore(filePath string, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	s := &Store{
		accounts: make(map[string]domain.BrokerAccount),
		presets:  make(map[string]domain.HotkeyPreset),
		filePath: filePath,
		log:      log,
	}
	s.subs = make(map[int]chan Event)
	s.load()
	return s
}

// Accounts returns all configured broker accounts in display order.
func (s *Store) Accounts() []domain.BrokerAccount {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.BrokerAccount, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Presets returns all hotkey presets in display order.
func (s *Store) Presets() []domain.HotkeyPreset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.HotkeyPreset, 0, len(s.presets))
	for _, p := range s.presets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Preset returns one preset by id.
func (s *Store) Preset(id string) (domain.HotkeyPreset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.presets[id]
	return p, ok
}

// Account returns one account by id.
func (s *Store) Account(id string) (domain.BrokerAccount, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	return a, ok
}

// SaveAccount validates and upserts an account, persists, and broadcasts.
func (s *Store) SaveAccount(a domain.BrokerAccount) error {
	if err := ValidateAccount(a); err != nil {
		return err
	}

	s.mu.Lock()
	s.accounts[a.ID] = a
	err := s.flush()
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.broadcast(Event{Type: "account", ID: a.ID})
	return nil
}

// SavePreset validates and upserts a preset, persists, and broadcasts.
// Validation here is the point where bad quantities are rejected, so the
// dispatcher's lenient parse stays a compatibility fallback, not the normal
// path.
func (s *Store) SavePreset(p domain.HotkeyPreset) error {
	if err := ValidatePreset(p); err != nil {
		return err
	}

	s.mu.Lock()
	s.presets[p.ID] = p
	err := s.flush()
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.broadcast(Event{Type: "preset", ID: p.ID})
	return nil
}

// DeleteAccount removes an account, persists, and broadcasts.
func (s *Store) DeleteAccount(id string) error {
	s.mu.Lock()
	delete(s.accounts, id)
	err := s.flush()
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.broadcast(Event{Type: "account", ID: id})
	return nil
}

// DeletePreset removes a preset, persists, and broadcasts.
func (s *Store) DeletePreset(id string) error {
	s.mu.Lock()
	delete(s.presets, id)
	err := s.flush()
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.broadcast(Event{Type: "preset", ID: id})
	return nil
}

// Subscribe returns a channel that receives change events. bufSize controls
// the channel buffer; slow consumers have events dropped.
func (s *Store) Subscribe(bufSize int) (int, <-chan Event) {
	ch := make(chan Event, bufSize)
	s.subsMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = ch
	s.subsMu.Unlock()
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (s *Store) Unsubscribe(id int) {
	s.subsMu.Lock()
	if ch, ok := s.subs[id]; ok {
		delete(s.subs, id)
		close(ch)
	}
	s.subsMu.Unlock()
}

// broadcast sends an event to all subscribers non-blocking (drop on full).
func (s *Store) broadcast(e Event) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- e:
		default:
			// Slow consumer — drop event.
		}
	}
}

// Reload re-reads the settings file, replacing the in-memory state. Used by
// the file watcher when the file is edited externally.
func (s *Store) Reload() {
	s.mu.Lock()
	s.accounts = make(map[string]domain.BrokerAccount)
	s.presets = make(map[string]domain.HotkeyPreset)
	s.load()
	s.mu.Unlock()

	s.broadcast(Event{Type: "reload"})
}

// load reads the JSON file into memory. Callers writing state must hold mu.
func (s *Store) load() {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return // File doesn't exist yet — start empty.
	}
	var m fileModel
	if err := json.Unmarshal(data, &m); err != nil {
		s.log.Warn("loading settings file", "path", s.filePath, "error", err)
		return
	}
	for _, a := range m.Accounts {
		s.accounts[a.ID] = a
	}
	for _, p := range m.Presets {
		s.presets[p.ID] = p
	}
	s.log.Info("loaded settings", "accounts", len(m.Accounts), "presets", len(m.Presets))
}

// flush writes the in-memory state to disk atomically (temp file + rename).
// Must be called with mu held.
func (s *Store) flush() error {
	m := fileModel{
		Accounts: make([]domain.BrokerAccount, 0, len(s.accounts)),
		Presets:  make([]domain.HotkeyPreset, 0, len(s.presets)),
	}
	for _, a := range s.accounts {
		m.Accounts = append(m.Accounts, a)
	}
	for _, p := range s.presets {
		m.Presets = append(m.Presets, p)
	}
	sort.Slice(m.Accounts, func(i, j int) bool { return m.Accounts[i].ID < m.Accounts[j].ID })
	sort.Slice(m.Presets, func(i, j int) bool { return m.Presets[i].ID < m.Presets[j].ID })

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling settings: %w", err)
	}

	tmp := s.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing settings temp file: %w", err)
	}
	if err := os.Rename(tmp, s.filePath); err != nil {
		return fmt.Errorf("replacing settings file: %w", err)
	}
	return nil
}

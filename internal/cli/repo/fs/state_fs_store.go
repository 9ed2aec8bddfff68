package fs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrNotStored - для комнаты ничего не сохранено.
var ErrNotStored = errors.New("nothing stored for room")

// State - содержимое файла состояния.
type State struct {
	Sessions map[string]string `json:"sessions"`
	Buyers   map[string]string `json:"buyers"`
	LastRoom string            `json:"last_room,omitempty"`
}

// StateFSStore - файловое хранилище состояния CLI (JSON, права 0600).
type StateFSStore struct {
	Path string
	mu   sync.Mutex
}

func NewStateFSStore(path string) *StateFSStore {
	return &StateFSStore{Path: path}
}

func (s *StateFSStore) read() (State, error) {
	st := State{Sessions: map[string]string{}, Buyers: map[string]string{}}
	b, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) || len(b) == 0 {
		return st, nil
	}
	if err != nil {
		return st, err
	}
	if err := json.Unmarshal(b, &st); err != nil {
		return st, fmt.Errorf("state file %s: %w", s.Path, err)
	}
	if st.Sessions == nil {
		st.Sessions = map[string]string{}
	}
	if st.Buyers == nil {
		st.Buyers = map[string]string{}
	}
	return st, nil
}

// write пишет во временный файл и переименовывает, чтобы не оставить обрезанный JSON
func (s *StateFSStore) write(st State) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.Path)
}

func (s *StateFSStore) update(fn func(*State)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.read()
	if err != nil {
		return err
	}
	fn(&st)
	return s.write(st)
}

// Load возвращает состояние целиком.
func (s *StateFSStore) Load() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// SaveSession сохраняет cookie сессии продавца комнаты.
func (s *StateFSStore) SaveSession(roomHash, token string) error {
	if roomHash == "" || token == "" {
		return errors.New("empty room or token")
	}
	return s.update(func(st *State) {
		st.Sessions[roomHash] = token
		st.LastRoom = roomHash
	})
}

// LoadSession читает cookie сессии продавца комнаты.
func (s *StateFSStore) LoadSession(roomHash string) (string, error) {
	st, err := s.Load()
	if err != nil {
		return "", err
	}
	tok, ok := st.Sessions[roomHash]
	if !ok || tok == "" {
		return "", ErrNotStored
	}
	return tok, nil
}

// DeleteSession забывает сессию продавца.
func (s *StateFSStore) DeleteSession(roomHash string) error {
	return s.update(func(st *State) {
		delete(st.Sessions, roomHash)
	})
}

// SaveBuyer сохраняет buyer_hash, выданный при входе в комнату.
func (s *StateFSStore) SaveBuyer(roomHash, buyerHash string) error {
	if roomHash == "" || buyerHash == "" {
		return errors.New("empty room or buyer hash")
	}
	return s.update(func(st *State) {
		st.Buyers[roomHash] = buyerHash
		st.LastRoom = roomHash
	})
}

// LoadBuyer читает buyer_hash комнаты.
func (s *StateFSStore) LoadBuyer(roomHash string) (string, error) {
	st, err := s.Load()
	if err != nil {
		return "", err
	}
	h, ok := st.Buyers[roomHash]
	if !ok || h == "" {
		return "", ErrNotStored
	}
	return h, nil
}

package room

import (
	"crypto/rand"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// codeAlphabet excludes characters that read ambiguously when a code is
// shared out loud or typed from a screen (0/O, 1/I).
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const codeLength = 6

// Registry holds all live rooms keyed by join code. Codes are generated
// here; lookups are case-insensitive.
type Registry struct {
	logger *log.Logger
	saver  ResultSaver

	mu    sync.RWMutex
	rooms map[string]*Room
}

// NewRegistry creates an empty room registry.
func NewRegistry(logger *log.Logger, saver ResultSaver) *Registry {
	return &Registry{
		logger: logger,
		saver:  saver,
		rooms:  make(map[string]*Room),
	}
}

// Create generates a unique join code and registers a new room under it.
func (reg *Registry) Create(opts Options) (*Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	var code string
	for {
		c, err := generateCode()
		if err != nil {
			return nil, fmt.Errorf("generate room code: %w", err)
		}
		if _, taken := reg.rooms[c]; !taken {
			code = c
			break
		}
	}

	r := New(code, opts, reg.logger, reg.saver)
	reg.rooms[code] = r
	reg.logger.Info("room created", "room", code, "mode", opts.Mode, "players", opts.PlayerCount)
	return r, nil
}

// Lookup finds a room by join code, ignoring case.
func (reg *Registry) Lookup(code string) (*Room, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	r, ok := reg.rooms[strings.ToUpper(code)]
	return r, ok
}

// Remove deletes a room from the registry. Idempotent: removing an unknown
// code is a no-op.
func (reg *Registry) Remove(code string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	delete(reg.rooms, strings.ToUpper(code))
}

// Evict stops a room and removes it if it has no human sessions left.
func (reg *Registry) Evict(code string) {
	code = strings.ToUpper(code)

	reg.mu.Lock()
	r, ok := reg.rooms[code]
	if ok {
		delete(reg.rooms, code)
	}
	reg.mu.Unlock()

	if ok {
		r.Stop()
		reg.logger.Info("room evicted", "room", code)
	}
}

// List returns summaries of all live rooms, ordered by creation time.
func (reg *Registry) List() []Info {
	reg.mu.RLock()
	rooms := make([]*Room, 0, len(reg.rooms))
	for _, r := range reg.rooms {
		rooms = append(rooms, r)
	}
	reg.mu.RUnlock()

	infos := make([]Info, 0, len(rooms))
	for _, r := range rooms {
		infos = append(infos, r.Info())
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})
	return infos
}

// StopAll stops every room and empties the registry. Called on server
// shutdown so no tick loop outlives the listener.
func (reg *Registry) StopAll() {
	reg.mu.Lock()
	rooms := make([]*Room, 0, len(reg.rooms))
	for _, r := range reg.rooms {
		rooms = append(rooms, r)
	}
	reg.rooms = make(map[string]*Room)
	reg.mu.Unlock()

	for _, r := range rooms {
		r.Stop()
	}
}

// Count returns the number of live rooms.
func (reg *Registry) Count() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.rooms)
}

func generateCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, b := range buf {
		sb.WriteByte(codeAlphabet[int(b)%len(codeAlphabet)])
	}
	return sb.String(), nil
}

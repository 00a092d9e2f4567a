package session

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/sessions"
)

// KV is the durable string key-value storage behind a Store.
type KV interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Remove(keys ...string)
	Save() error
}

// CookieKV keeps values in a gorilla session, written back as a signed cookie.
type CookieKV struct {
	sess *sessions.Session
	r    *http.Request
	w    http.ResponseWriter
}

func NewCookieKV(sess *sessions.Session, r *http.Request, w http.ResponseWriter) *CookieKV {
	return &CookieKV{sess: sess, r: r, w: w}
}

func (c *CookieKV) Get(key string) (string, bool) {
	v, ok := c.sess.Values[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func (c *CookieKV) Set(key, value string) {
	c.sess.Values[key] = value
}

func (c *CookieKV) Remove(keys ...string) {
	for _, k := range keys {
		delete(c.sess.Values, k)
	}
}

func (c *CookieKV) Save() error {
	if err := c.sess.Save(c.r, c.w); err != nil {
		return fmt.Errorf("save session cookie: %w", err)
	}
	return nil
}

// MemoryKV is a KV held in process memory.
type MemoryKV struct {
	mu     sync.Mutex
	values map[string]string
	saves  int
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string]string)}
}

func (m *MemoryKV) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *MemoryKV) Set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}

func (m *MemoryKV) Remove(keys ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
}

func (m *MemoryKV) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	return nil
}

// Saves reports how many times Save was called.
func (m *MemoryKV) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

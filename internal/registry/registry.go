package registry

import (
	"context"
	"strings"
	"sync"
)

// Registry 地址 -> 显示名
type Registry interface {
	// Name 未登记时返回 ""，不是错误
	Name(ctx context.Context, address string) (string, error)
	SetName(ctx context.Context, address, name string) error
}

const maxNameLen = 32

// Normalize 地址统一小写；名字去空白并截断
func Normalize(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

func cleanName(name string) string {
	name = strings.TrimSpace(name)
	if r := []rune(name); len(r) > maxNameLen {
		name = string(r[:maxNameLen])
	}
	return name
}

// Short 0x1234…abcd
func Short(address string) string {
	if len(address) <= 10 {
		return address
	}
	return address[:6] + "…" + address[len(address)-4:]
}

// Display 查不到或出错时退回短地址
func Display(ctx context.Context, r Registry, address string) string {
	if r != nil {
		if name, err := r.Name(ctx, address); err == nil && name != "" {
			return name
		}
	}
	return Short(address)
}

type memRegistry struct {
	mu    sync.RWMutex
	names map[string]string
}

func NewMemoryRegistry() Registry {
	return &memRegistry{names: make(map[string]string)}
}

func (m *memRegistry) Name(ctx context.Context, address string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.names[Normalize(address)], nil
}

func (m *memRegistry) SetName(ctx context.Context, address, name string) error {
	name = cleanName(name)
	m.mu.Lock()
	defer m.mu.Unlock()
	if name == "" {
		delete(m.names, Normalize(address))
		return nil
	}
	m.names[Normalize(address)] = name
	return nil
}

// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package beatrpc

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ReservedPrefix marks internal names. They are never exposed.
const ReservedPrefix = "_"

// Registration errors.
var (
	ErrReservedName = errors.New("beatrpc: reserved method name")
	ErrEmptyName    = errors.New("beatrpc: empty method name")
	ErrBadMethod    = errors.New("beatrpc: unsupported method signature")
	ErrDuplicate    = errors.New("beatrpc: method already registered")
)

// Method is a remotely callable function. The argument arrives as opaque
// text; each method parses and validates it itself.
type Method func(arg string) (string, error)

// Registry maps exposed method names to methods. It is filled at startup and
// only read afterwards.
type Registry struct {
	mu      sync.RWMutex
	methods map[string]Method
}

// NewRegistry returns a registry exposing echo.
func NewRegistry() *Registry {
	r := &Registry{methods: make(map[string]Method)}
	r.methods["echo"] = Echo
	return r
}

// Echo returns its argument unchanged. Clients use it to confirm the
// connection.
func Echo(msg string) (string, error) {
	return msg, nil
}

// Register exposes fn under name. fn must be a Method,
// func(string) string or func(string) (string, error).
func (r *Registry) Register(name string, fn interface{}) error {
	switch f := fn.(type) {
	case Method:
		return r.RegisterMethod(name, f)
	case func(string) (string, error):
		return r.RegisterMethod(name, f)
	case func(string) string:
		return r.RegisterMethod(name, func(arg string) (string, error) {
			return f(arg), nil
		})
	default:
		return fmt.Errorf("%w: %s is %T", ErrBadMethod, name, fn)
	}
}

// RegisterMethod exposes m under name.
func (r *Registry) RegisterMethod(name string, m Method) error {
	if name == "" {
		return ErrEmptyName
	}
	if strings.HasPrefix(name, ReservedPrefix) {
		return fmt.Errorf("%w: %q", ErrReservedName, name)
	}
	if m == nil {
		return fmt.Errorf("%w: %s is nil", ErrBadMethod, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.methods[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicate, name)
	}
	r.methods[name] = m
	return nil
}

// Lookup resolves an exposed method.
func (r *Registry) Lookup(name string) (Method, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.methods[name]
	return m, ok
}

// Names returns the exposed method names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.methods))
	for name := range r.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

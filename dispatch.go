// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package beatrpc

import (
	"errors"
	"fmt"
	"strings"
)

// Errors returned by Dispatch. All of them are recoverable: the loop turns
// them into an error response and keeps beating.
var (
	ErrMalformedPacket = errors.New("Malformed packet")
	ErrInternalMethod  = errors.New("Cannot call internal methods!")
	ErrNoSuchMethod    = errors.New("no such method")
)

// CallError wraps a failure raised by the method itself.
type CallError struct {
	Method string
	Err    error
}

func (e *CallError) Error() string {
	return e.Err.Error()
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// Dispatch validates a payload of [name, argument], resolves name in reg and
// invokes it. Method errors and panics come back as *CallError.
func Dispatch(reg *Registry, payload []string) (string, error) {
	if len(payload) != 2 {
		return "", fmt.Errorf("%w: expected 2 frames, got %d", ErrMalformedPacket, len(payload))
	}
	name, arg := payload[0], payload[1]
	if strings.HasPrefix(name, ReservedPrefix) {
		return "", ErrInternalMethod
	}

	m, ok := reg.Lookup(name)
	if !ok {
		return "", fmt.Errorf("%w: '%s'", ErrNoSuchMethod, name)
	}
	return invoke(name, m, arg)
}

func invoke(name string, m Method, arg string) (result string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &CallError{Method: name, Err: fmt.Errorf("%v", r)}
		}
	}()

	result, err = m(arg)
	if err != nil {
		return "", &CallError{Method: name, Err: err}
	}
	return result, nil
}

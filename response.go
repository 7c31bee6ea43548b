// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package beatrpc

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// Separator joins the base message and the result or error. It is not
	// escaped; a result may contain it.
	Separator = ":::"

	beatMessage    = "beat"
	stoppedMessage = "STOPPED"
	errorPrefix    = "error: "
)

// ErrUnknownResponse reports text that is not a heartbeat response.
var ErrUnknownResponse = errors.New("beatrpc: unknown response")

// ResponseKind tags a Response.
type ResponseKind uint8

// Response kinds, one per wire form.
const (
	KindBeat ResponseKind = iota
	KindResult
	KindError
	KindStopped
)

func (k ResponseKind) String() string {
	switch k {
	case KindBeat:
		return "beat"
	case KindResult:
		return "result"
	case KindError:
		return "error"
	case KindStopped:
		return "stopped"
	default:
		return fmt.Sprintf("ResponseKind(%d)", k)
	}
}

// Response is the single frame sent at the end of every cycle.
// Text holds the result for KindResult and the message for KindError.
type Response struct {
	Kind ResponseKind
	Text string
}

// BeatResponse acknowledges a cycle that carried no call.
func BeatResponse() Response { return Response{Kind: KindBeat} }

// ResultResponse carries the result of a successful call.
func ResultResponse(v string) Response { return Response{Kind: KindResult, Text: v} }

// ErrorResponse carries a recoverable failure message.
func ErrorResponse(msg string) Response { return Response{Kind: KindError, Text: msg} }

// StoppedResponse answers the stop directive.
func StoppedResponse() Response { return Response{Kind: KindStopped} }

// EncodeResponse renders r in wire form:
//
//	beat
//	beat:::<result>
//	beat:::error: <message>
//	STOPPED
func EncodeResponse(r Response) string {
	switch r.Kind {
	case KindResult:
		return beatMessage + Separator + r.Text
	case KindError:
		return beatMessage + Separator + errorPrefix + r.Text
	case KindStopped:
		return stoppedMessage
	default:
		return beatMessage
	}
}

// DecodeResponse parses the wire form produced by EncodeResponse. The text is
// split at the first Separator. A result that itself starts with "error: "
// decodes as an error; the wire format cannot tell them apart.
func DecodeResponse(text string) (Response, error) {
	base, payload, found := strings.Cut(text, Separator)
	switch base {
	case stoppedMessage:
		if found {
			return Response{}, fmt.Errorf("%w: %q", ErrUnknownResponse, text)
		}
		return StoppedResponse(), nil
	case beatMessage:
	default:
		return Response{}, fmt.Errorf("%w: %q", ErrUnknownResponse, text)
	}

	if !found {
		return BeatResponse(), nil
	}
	if msg, ok := strings.CutPrefix(payload, errorPrefix); ok {
		return ErrorResponse(msg), nil
	}
	return ResultResponse(payload), nil
}

// Err returns the carried error for KindError responses.
func (r Response) Err() error {
	if r.Kind != KindError {
		return nil
	}
	return &RemoteError{Message: r.Text}
}

// RemoteError is an error reported by the server inside a beat.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return "remote: " + e.Message
}

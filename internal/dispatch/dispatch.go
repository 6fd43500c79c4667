// Package dispatch maps a parsed Request onto a pixmap operation and an
// optional Response, per spec §4.6. Set returns no response — the
// asymmetry that lets clients fire-and-forget pixel writes at full line
// rate without waiting on a reply.
package dispatch

import (
	"github.com/pixelflut/flut/internal/color"
	"github.com/pixelflut/flut/internal/pixmap"
	"github.com/pixelflut/flut/internal/protocol"
)

// UserError is a request-level failure (bad coordinates) that should be
// reported to the caller as a text line; it never terminates a connection.
type UserError struct {
	msg string
}

func (e UserError) Error() string { return e.msg }

// Dispatch executes req against pm and returns the Response to send, if
// any. A nil, nil result means "no response" (a successful SetPixel).
func Dispatch(req protocol.Request, pm *pixmap.Pixmap) (*protocol.Response, error) {
	switch req.Kind {
	case protocol.ReqHelp:
		return &protocol.Response{Kind: protocol.RespHelp, Topic: req.Topic}, nil

	case protocol.ReqGetSize:
		w, h := pm.Size()
		return &protocol.Response{Kind: protocol.RespSize, Width: w, Height: h}, nil

	case protocol.ReqGetPixel:
		word, err := pm.Get(int(req.X), int(req.Y))
		if err != nil {
			return nil, UserError{msg: err.Error()}
		}
		return &protocol.Response{
			Kind:  protocol.RespPxData,
			X:     req.X,
			Y:     req.Y,
			Color: color.Unpack(word),
		}, nil

	case protocol.ReqSetPixel:
		if err := pm.Set(int(req.X), int(req.Y), req.Color.Pack()); err != nil {
			return nil, UserError{msg: err.Error()}
		}
		return nil, nil

	default:
		return nil, UserError{msg: "unknown request"}
	}
}

// Package protocol defines the tagged Request/Response unions of the
// pixelflut wire protocol: what a parser produces and what a dispatcher
// consumes and returns.
package protocol

import "github.com/pixelflut/flut/internal/color"

// Topic names a help subject a client can ask about.
type Topic int

const (
	TopicGeneral Topic = iota
	TopicSize
	TopicPx
)

// RequestKind tags the variant carried by a Request.
type RequestKind int

const (
	ReqHelp RequestKind = iota
	ReqGetSize
	ReqGetPixel
	ReqSetPixel
)

// Request is the closed union of everything a client can ask the server
// to do. Only the fields relevant to Kind are meaningful.
type Request struct {
	Kind  RequestKind
	Topic Topic
	X, Y  uint16
	Color color.Color
}

// ResponseKind tags the variant carried by a Response.
type ResponseKind int

const (
	RespHelp ResponseKind = iota
	RespSize
	RespPxData
)

// Response is the closed union of everything the dispatcher can hand back
// to a caller for serialization. A Response is created once, serialized
// once, and discarded — it never outlives the request that produced it.
type Response struct {
	Kind          ResponseKind
	Topic         Topic
	Width, Height int
	X, Y          uint16
	Color         color.Color
}

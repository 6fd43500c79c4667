// Package compliant implements the tokenizing reference parser of spec
// §4.3: split on whitespace, dispatch on token count, case-insensitive
// keywords. It favors clarity and correctness over throughput — the fast
// parser in internal/parser/fast is what carries the hot path.
package compliant

import (
	"strconv"
	"strings"

	"github.com/pixelflut/flut/internal/color"
	"github.com/pixelflut/flut/internal/protocol"
)

// ErrKind distinguishes why a line failed to parse, though both kinds
// collapse to the same single-line wire response per spec §7.
type ErrKind int

const (
	ErrUnknown ErrKind = iota
	ErrInvalidArgs
)

// ParseError reports why Parse rejected a line.
type ParseError struct {
	Kind ErrKind
	Line string
}

func (e ParseError) Error() string {
	return "unknown command"
}

// Parse tokenizes a single line (no trailing newline) and builds a
// Request. Extra tokens beyond four are a syntax error; unknown keywords,
// non-numeric coordinates, and malformed hex all collapse into the same
// Unknown error the client sees as a plain "unknown command" line.
func Parse(line string) (protocol.Request, error) {
	toks := strings.Fields(line)
	switch len(toks) {
	case 0:
		return protocol.Request{}, ParseError{Kind: ErrInvalidArgs, Line: line}
	case 1:
		return parseOneToken(toks[0], line)
	case 2:
		return parseHelpTopic(toks, line)
	case 3:
		return parseGetPixel(toks, line)
	case 4:
		return parseSetPixel(toks, line)
	default:
		return protocol.Request{}, ParseError{Kind: ErrInvalidArgs, Line: line}
	}
}

func parseOneToken(tok, line string) (protocol.Request, error) {
	switch strings.ToUpper(tok) {
	case "HELP":
		return protocol.Request{Kind: protocol.ReqHelp, Topic: protocol.TopicGeneral}, nil
	case "SIZE":
		return protocol.Request{Kind: protocol.ReqGetSize}, nil
	default:
		return protocol.Request{}, ParseError{Kind: ErrUnknown, Line: line}
	}
}

func parseHelpTopic(toks []string, line string) (protocol.Request, error) {
	if !strings.EqualFold(toks[0], "HELP") {
		return protocol.Request{}, ParseError{Kind: ErrUnknown, Line: line}
	}
	var topic protocol.Topic
	switch strings.ToLower(toks[1]) {
	case "help", "general":
		topic = protocol.TopicGeneral
	case "size":
		topic = protocol.TopicSize
	case "px":
		topic = protocol.TopicPx
	default:
		return protocol.Request{}, ParseError{Kind: ErrUnknown, Line: line}
	}
	return protocol.Request{Kind: protocol.ReqHelp, Topic: topic}, nil
}

func parseGetPixel(toks []string, line string) (protocol.Request, error) {
	if !strings.EqualFold(toks[0], "PX") {
		return protocol.Request{}, ParseError{Kind: ErrUnknown, Line: line}
	}
	x, y, err := parseCoords(toks[1], toks[2])
	if err != nil {
		return protocol.Request{}, ParseError{Kind: ErrUnknown, Line: line}
	}
	return protocol.Request{Kind: protocol.ReqGetPixel, X: x, Y: y}, nil
}

func parseSetPixel(toks []string, line string) (protocol.Request, error) {
	if !strings.EqualFold(toks[0], "PX") {
		return protocol.Request{}, ParseError{Kind: ErrUnknown, Line: line}
	}
	x, y, err := parseCoords(toks[1], toks[2])
	if err != nil {
		return protocol.Request{}, ParseError{Kind: ErrUnknown, Line: line}
	}
	c, err := color.Decode(toks[3])
	if err != nil {
		return protocol.Request{}, ParseError{Kind: ErrUnknown, Line: line}
	}
	return protocol.Request{Kind: protocol.ReqSetPixel, X: x, Y: y, Color: c}, nil
}

func parseCoords(xs, ys string) (x, y uint16, err error) {
	xi, err := strconv.ParseUint(xs, 10, 16)
	if err != nil {
		return 0, 0, err
	}
	yi, err := strconv.ParseUint(ys, 10, 16)
	if err != nil {
		return 0, 0, err
	}
	return uint16(xi), uint16(yi), nil
}

// Format renders a Request back into the exact wire form Parse accepts,
// used by the round-trip property tests of spec §8.
func Format(req protocol.Request) string {
	switch req.Kind {
	case protocol.ReqHelp:
		switch req.Topic {
		case protocol.TopicSize:
			return "HELP SIZE"
		case protocol.TopicPx:
			return "HELP PX"
		default:
			return "HELP"
		}
	case protocol.ReqGetSize:
		return "SIZE"
	case protocol.ReqGetPixel:
		return "PX " + strconv.Itoa(int(req.X)) + " " + strconv.Itoa(int(req.Y))
	case protocol.ReqSetPixel:
		return "PX " + strconv.Itoa(int(req.X)) + " " + strconv.Itoa(int(req.Y)) + " " + req.Color.Encode()
	default:
		return ""
	}
}

package compliant_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/pixelflut/flut/internal/color"
	"github.com/pixelflut/flut/internal/protocol"

	"github.com/pixelflut/flut/internal/parser/compliant"
)

func TestParseHelp(t *testing.T) {
	req, err := compliant.Parse("HELP")
	require.NoError(t, err)
	assert.Equal(t, protocol.Request{Kind: protocol.ReqHelp, Topic: protocol.TopicGeneral}, req)
}

func TestParseHelpTopics(t *testing.T) {
	req, err := compliant.Parse("help size")
	require.NoError(t, err)
	assert.Equal(t, protocol.ReqHelp, req.Kind)
	assert.Equal(t, protocol.TopicSize, req.Topic)

	req, err = compliant.Parse("HELP PX")
	require.NoError(t, err)
	assert.Equal(t, protocol.TopicPx, req.Topic)
}

func TestParseSize(t *testing.T) {
	req, err := compliant.Parse("size")
	require.NoError(t, err)
	assert.Equal(t, protocol.Request{Kind: protocol.ReqGetSize}, req)
}

func TestParseGetPixel(t *testing.T) {
	req, err := compliant.Parse("PX 10 20")
	require.NoError(t, err)
	assert.Equal(t, protocol.ReqGetPixel, req.Kind)
	assert.EqualValues(t, 10, req.X)
	assert.EqualValues(t, 20, req.Y)
}

func TestParseSetPixel(t *testing.T) {
	req, err := compliant.Parse("PX 1 2 FF00AA")
	require.NoError(t, err)
	assert.Equal(t, protocol.ReqSetPixel, req.Kind)
	assert.EqualValues(t, 1, req.X)
	assert.EqualValues(t, 2, req.Y)
	assert.Equal(t, "FF00AA", req.Color.Encode())
}

func TestParseSetPixelAcceptsHashPrefix(t *testing.T) {
	req, err := compliant.Parse("px 1 2 #00ff00")
	require.NoError(t, err)
	assert.Equal(t, "00FF00", req.Color.Encode())
}

func TestParseRejectsUnknownCommand(t *testing.T) {
	_, err := compliant.Parse("FOO")
	require.Error(t, err)
	var parseErr compliant.ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestParseRejectsEmptyLine(t *testing.T) {
	_, err := compliant.Parse("")
	require.Error(t, err)
}

func TestParseRejectsTooManyTokens(t *testing.T) {
	_, err := compliant.Parse("PX 1 2 FF00AA extra")
	require.Error(t, err)
}

func TestParseRejectsBadCoordinates(t *testing.T) {
	_, err := compliant.Parse("PX x y")
	require.Error(t, err)
}

func TestParseRejectsBadHex(t *testing.T) {
	_, err := compliant.Parse("PX 1 2 ZZZZZZ")
	require.Error(t, err)
}

func TestParseFormatRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		x := uint16(rapid.IntRange(0, 65535).Draw(t, "x"))
		y := uint16(rapid.IntRange(0, 65535).Draw(t, "y"))

		getReq := protocol.Request{Kind: protocol.ReqGetPixel, X: x, Y: y}
		parsed, err := compliant.Parse(compliant.Format(getReq))
		require.NoError(t, err)
		assert.Equal(t, getReq, parsed)

		sizeReq := protocol.Request{Kind: protocol.ReqGetSize}
		parsed, err = compliant.Parse(compliant.Format(sizeReq))
		require.NoError(t, err)
		assert.Equal(t, sizeReq, parsed)

		c := color.Color{
			R: uint8(rapid.IntRange(0, 255).Draw(t, "r")),
			G: uint8(rapid.IntRange(0, 255).Draw(t, "g")),
			B: uint8(rapid.IntRange(0, 255).Draw(t, "b")),
		}
		setReq := protocol.Request{Kind: protocol.ReqSetPixel, X: x, Y: y, Color: c}
		parsed, err = compliant.Parse(compliant.Format(setReq))
		require.NoError(t, err)
		assert.Equal(t, setReq, parsed)
	})
}

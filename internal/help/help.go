// Package help supplies the text behind Help responses. spec.md treats
// help-text content as an external collaborator: the catalog here is the
// minimal concrete implementation needed to make the server runnable, kept
// behind a small interface so a richer catalog could be substituted
// without touching the dispatcher or response writer.
package help

import "github.com/pixelflut/flut/internal/protocol"

// Catalog resolves a help Topic to display text.
type Catalog interface {
	Text(topic protocol.Topic) string
}

// Default is the built-in catalog, good enough to describe the protocol
// this server actually speaks.
var Default Catalog = defaultCatalog{}

type defaultCatalog struct{}

func (defaultCatalog) Text(topic protocol.Topic) string {
	switch topic {
	case protocol.TopicSize:
		return "SIZE returns the canvas dimensions as 'SIZE <width> <height>'."
	case protocol.TopicPx:
		return "PX <x> <y> [<rrggbb>] gets or sets the color of one pixel. " +
			"Omit the color to read it back; include it (hex, '#' optional) to set it."
	default:
		return "pixelflut server. commands: HELP, HELP <topic>, SIZE, PX <x> <y> [<rrggbb>]."
	}
}

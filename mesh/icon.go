package mesh

import (
	"net/url"
	"strings"
)

// markerSVG is a small ring marker; {strokeColor} is replaced per group.
const markerSVG = `<svg xmlns="http://www.w3.org/2000/svg" x="0px" y="0px" width="13.1px" height="13.1px" viewBox="0 0 13.1 13.1" xml:space="preserve">` +
	`<path fill="#ffffff" stroke="{strokeColor}" stroke-width="4.5" stroke-miterlimit="10" d="M10.8,6.5c0,2.4-1.9,4.3-4.3,4.3S2.2,8.9,2.2,6.5s1.9-4.3,4.3-4.3S10.8,4.2,10.8,6.5z"/>` +
	`</svg>`

const (
	markerSize   = 13
	markerAnchor = 6
)

// MarkerSVG returns the marker image with the given stroke color.
func MarkerSVG(color string) string {
	return strings.Replace(markerSVG, "{strokeColor}", color, 1)
}

// MarkerIcon returns the marker icon for color as an inline SVG data URI.
func MarkerIcon(color string) Icon {
	return Icon{
		Color:   color,
		URL:     "data:image/svg+xml," + encodeURIComponent(MarkerSVG(color)),
		Width:   markerSize,
		Height:  markerSize,
		AnchorX: markerAnchor,
		AnchorY: markerAnchor,
	}
}

// encodeURIComponent percent-encodes s the way browsers expect inside a data
// URI: spaces become %20 rather than "+".
func encodeURIComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/sephire/internal/services"
	"github.com/desertthunder/sephire/internal/shared"
)

var (
	_ list.Item = trackItem{}
	_ list.Item = artistItem{}
)

// trackItem wraps [services.Track] to implement [list.Item].
type trackItem struct {
	track services.Track
}

func (i trackItem) FilterValue() string { return i.track.Name }
func (i trackItem) Title() string       { return i.track.Name }
func (i trackItem) Description() string {
	desc := i.track.Artist
	if i.track.Album != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.Album)
	}
	if i.track.DurationMS > 0 {
		desc = fmt.Sprintf("%s • %s", desc, shared.FormatDuration(i.track.DurationMS))
	}
	return desc
}

// artistItem wraps [services.Artist] to implement [list.Item].
type artistItem struct {
	artist services.Artist
}

func (i artistItem) FilterValue() string { return i.artist.Name }
func (i artistItem) Title() string       { return i.artist.Name }
func (i artistItem) Description() string {
	desc := fmt.Sprintf("popularity %d", i.artist.Popularity)
	if len(i.artist.Genres) > 0 {
		desc = fmt.Sprintf("%s • %s", strings.Join(i.artist.Genres, ", "), desc)
	}
	return desc
}

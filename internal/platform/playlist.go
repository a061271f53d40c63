package platform

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ytget/ytdlp/v2"

	"github.com/fetchtube/fetchtube/internal/model"
)

const (
	// DefaultEnumerateTimeout bounds one playlist enumeration round trip
	DefaultEnumerateTimeout = 60 * time.Second

	// MinPrefixLength is the shortest shared title prefix worth using as a
	// playlist title
	MinPrefixLength = 10

	// PlaylistSuffix is appended to derived playlist titles
	PlaylistSuffix = " Playlist"

	// DefaultPlaylistName is used when no title can be derived
	DefaultPlaylistName = "Unknown Playlist"
)

// PlaylistInfo is the result of enumerating a playlist locator: its items in
// playlist order plus a display title.
type PlaylistInfo struct {
	ID      string
	Title   string
	Entries []model.Item
}

// Enumerator expands playlist locators into their ordered items.
type Enumerator struct {
	timeout time.Duration
}

// NewEnumerator creates a playlist enumerator with the default timeout.
func NewEnumerator() *Enumerator {
	return &Enumerator{timeout: DefaultEnumerateTimeout}
}

// SetTimeout sets the timeout for enumeration calls.
func (e *Enumerator) SetTimeout(timeout time.Duration) {
	e.timeout = timeout
}

// Enumerate fetches the playlist's items in order. One network round trip;
// items are not resolved here, each job resolves its own formats later.
func (e *Enumerator) Enumerate(ctx context.Context, loc model.Locator) (*PlaylistInfo, error) {
	if loc.Kind != model.KindPlaylist || loc.PlaylistID == "" {
		return nil, &model.ValidationError{Input: loc.Raw, Reason: "not a playlist locator"}
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	d := ytdlp.New()
	items, err := d.GetPlaylistItemsAll(ctx, loc.PlaylistID, 0)
	if err != nil {
		return nil, &model.ResolutionError{URL: loc.Raw, Err: fmt.Errorf("enumerate playlist: %w", err)}
	}
	if len(items) == 0 {
		return nil, &model.ResolutionError{URL: loc.Raw, Err: fmt.Errorf("playlist %s has no items", loc.PlaylistID)}
	}

	entries := make([]model.Item, 0, len(items))
	for _, it := range items {
		entries = append(entries, model.Item{
			VideoID: it.VideoID,
			URL:     model.WatchURL(it.VideoID),
			Title:   it.Title,
		})
	}

	return &PlaylistInfo{
		ID:      loc.PlaylistID,
		Title:   derivePlaylistTitle(entries),
		Entries: entries,
	}, nil
}

// derivePlaylistTitle names a playlist from its items: a long-enough shared
// title prefix wins, otherwise the first item's title.
func derivePlaylistTitle(entries []model.Item) string {
	if len(entries) == 0 {
		return DefaultPlaylistName
	}
	if len(entries) > 1 {
		prefix := commonPrefix(entries[0].Title, entries[1].Title)
		if len(prefix) > MinPrefixLength {
			return strings.TrimSpace(prefix) + PlaylistSuffix
		}
	}
	return entries[0].Title + PlaylistSuffix
}

func commonPrefix(s1, s2 string) string {
	minLen := min(len(s1), len(s2))
	for i := 0; i < minLen; i++ {
		if s1[i] != s2[i] {
			return s1[:i]
		}
	}
	return s1[:minLen]
}

package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/lrstanley/go-ytdlp"
	"github.com/rs/zerolog"

	"github.com/fetchtube/fetchtube/internal/model"
)

// Resolver enumerates available formats for a single item via yt-dlp.
type Resolver struct {
	cookieFile string
	log        zerolog.Logger
}

// NewResolver creates a Resolver. cookieFile may be empty; when set it is
// passed through to yt-dlp unmodified.
func NewResolver(cookieFile string, log zerolog.Logger) *Resolver {
	return &Resolver{cookieFile: cookieFile, log: log}
}

// Resolve performs one metadata round trip for the item and returns its
// details with formats ordered worst-to-best as the resolver reports them.
func (r *Resolver) Resolve(ctx context.Context, item model.Item) (model.ItemDetails, error) {
	dl := ytdlp.New().
		DumpSingleJSON().
		SkipDownload().
		NoPlaylist()
	if r.cookieFile != "" {
		dl = dl.Cookies(r.cookieFile)
	}

	result, err := dl.Run(ctx, item.URL)
	if err != nil {
		if ctx.Err() != nil {
			return model.ItemDetails{}, ctx.Err()
		}
		return model.ItemDetails{}, &model.ResolutionError{URL: item.URL, Err: err}
	}

	details, err := parseInfoJSON([]byte(result.Stdout))
	if err != nil {
		return model.ItemDetails{}, &model.ResolutionError{URL: item.URL, Err: err}
	}

	r.log.Debug().
		Str("video_id", details.VideoID).
		Int("formats", len(details.Formats)).
		Msg("resolved item")
	return details, nil
}

// infoDump is the subset of yt-dlp's info dict the engine reads.
type infoDump struct {
	ID       string       `json:"id"`
	Title    string       `json:"title"`
	Duration float64      `json:"duration"`
	Formats  []formatDump `json:"formats"`
}

type formatDump struct {
	FormatID       string  `json:"format_id"`
	Ext            string  `json:"ext"`
	Height         int     `json:"height"`
	VCodec         string  `json:"vcodec"`
	ACodec         string  `json:"acodec"`
	ABR            float64 `json:"abr"`
	Filesize       int64   `json:"filesize"`
	FilesizeApprox int64   `json:"filesize_approx"`
}

func parseInfoJSON(data []byte) (model.ItemDetails, error) {
	var dump infoDump
	if err := json.Unmarshal(data, &dump); err != nil {
		return model.ItemDetails{}, fmt.Errorf("parse info dump: %w", err)
	}
	if dump.ID == "" {
		return model.ItemDetails{}, fmt.Errorf("info dump has no item id")
	}

	details := model.ItemDetails{
		VideoID:  dump.ID,
		Title:    dump.Title,
		Duration: dump.Duration,
		Formats:  make([]model.FormatDescriptor, 0, len(dump.Formats)),
	}

	for _, f := range dump.Formats {
		hasVideo := f.VCodec != "" && f.VCodec != "none"
		hasAudio := f.ACodec != "" && f.ACodec != "none"
		if !hasVideo && !hasAudio {
			// storyboards and other non-media entries
			continue
		}

		size := f.Filesize
		if size == 0 {
			size = f.FilesizeApprox
		}

		desc := model.FormatDescriptor{
			ID:            f.FormatID,
			Container:     f.Ext,
			AudioBitrate:  f.ABR,
			EstimatedSize: size,
		}
		if hasVideo {
			desc.Height = f.Height
			desc.RequiresMerge = !hasAudio
		}
		details.Formats = append(details.Formats, desc)
	}

	// Stable worst-to-best order: video by height, audio-only by bitrate.
	sort.SliceStable(details.Formats, func(i, j int) bool {
		a, b := details.Formats[i], details.Formats[j]
		if a.Height != b.Height {
			return a.Height < b.Height
		}
		return a.AudioBitrate < b.AudioBitrate
	})

	return details, nil
}

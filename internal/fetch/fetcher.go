package fetch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"github.com/rs/zerolog"

	"github.com/fetchtube/fetchtube/internal/model"
)

// ProgressInterval throttles progress callbacks from yt-dlp
const ProgressInterval = 500 * time.Millisecond

// Partial-download artifacts that must never be mistaken for the result
var skippedExtensions = []string{".part", ".ytdl"}

// ProgressFn receives incremental download progress. percent is -1 when the
// total size is unknown.
type ProgressFn func(downloaded, total int64, percent float64)

// Service downloads raw streams into a staging directory. Final placement is
// the output resolver's job.
type Service struct {
	stagingDir string
	cookieFile string
	log        zerolog.Logger
}

// NewService creates a fetch service writing into stagingDir.
func NewService(stagingDir, cookieFile string, log zerolog.Logger) *Service {
	return &Service{stagingDir: stagingDir, cookieFile: cookieFile, log: log}
}

// Fetch downloads one stream of an item selected by formatSpec. label keeps
// multiple streams of the same item (video + audio for a merge) apart in the
// staging directory. Returns the path of the downloaded file.
func (s *Service) Fetch(ctx context.Context, item model.Item, formatSpec, label string, progress ProgressFn) (string, error) {
	base := item.VideoID + "." + label
	outTmpl := filepath.Join(s.stagingDir, base+".%(ext)s")

	dl := ytdlp.New().
		ForceOverwrites().
		RestrictFilenames().
		NoPlaylist().
		Format(formatSpec).
		Output(outTmpl)
	if s.cookieFile != "" {
		dl = dl.Cookies(s.cookieFile)
	}

	dl.ProgressFunc(ProgressInterval, func(update ytdlp.ProgressUpdate) {
		if progress == nil {
			return
		}
		if update.TotalBytes > 0 {
			percent := float64(update.DownloadedBytes) / float64(update.TotalBytes) * 100
			progress(int64(update.DownloadedBytes), int64(update.TotalBytes), percent)
		} else {
			progress(int64(update.DownloadedBytes), 0, -1)
		}
	})

	s.log.Debug().Str("video_id", item.VideoID).Str("format", formatSpec).Msg("starting fetch")

	if _, err := dl.Run(ctx, item.URL); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &model.FetchError{URL: item.URL, Err: err, Transient: isTransient(err)}
	}

	path, err := s.locateDownload(base)
	if err != nil {
		return "", &model.FetchError{URL: item.URL, Err: err}
	}
	return path, nil
}

// locateDownload finds the downloaded file for a staging base name. The
// extension is chosen by yt-dlp, so the lookup globs and takes the newest
// non-partial match.
func (s *Service) locateDownload(base string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(s.stagingDir, base+".*"))
	if err != nil {
		return "", err
	}

	var candidates []string
	for _, m := range matches {
		if isPartial(m) {
			continue
		}
		candidates = append(candidates, m)
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("no downloaded file for %s in %s", base, s.stagingDir)
	}

	sort.Slice(candidates, func(i, j int) bool {
		infoI, errI := os.Stat(candidates[i])
		infoJ, errJ := os.Stat(candidates[j])
		if errI != nil || errJ != nil {
			return false
		}
		return infoI.ModTime().After(infoJ.ModTime())
	})
	return candidates[0], nil
}

func isPartial(path string) bool {
	for _, ext := range skippedExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// isTransient flags network-shaped failures eligible for the single retry.
// Access and availability errors are permanent.
func isTransient(err error) bool {
	msg := strings.ToLower(err.Error())
	transientMarkers := []string{
		"timeout",
		"timed out",
		"connection reset",
		"connection refused",
		"temporar",
		"unexpected eof",
		"incomplete read",
		"network is unreachable",
		"503",
	}
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

package catalog

import (
	"fmt"

	"github.com/fetchtube/fetchtube/internal/model"
)

// Select picks one descriptor from a resolved catalog against the request.
//
// Video policy: highest resolution at or below the ceiling; when nothing fits
// under the ceiling the lowest available resolution is chosen and a downgrade
// note is attached instead of failing the item. Audio policy: the
// highest-bitrate audio-only stream, falling back to the best combined stream
// marked for audio extraction.
func Select(formats []model.FormatDescriptor, req model.QualityRequest) (model.FormatDescriptor, error) {
	if req.Kind == model.MediaAudioOnly {
		return selectAudio(formats, req)
	}
	return selectVideo(formats, req)
}

func selectVideo(formats []model.FormatDescriptor, req model.QualityRequest) (model.FormatDescriptor, error) {
	var best, lowest *model.FormatDescriptor
	for i := range formats {
		f := &formats[i]
		if f.IsAudioOnly() {
			continue
		}
		if lowest == nil || f.Height < lowest.Height {
			lowest = f
		}
		if req.MaxHeight > 0 && f.Height > req.MaxHeight {
			continue
		}
		if best == nil || f.Height > best.Height {
			best = f
		}
	}

	if best != nil {
		chosen := *best
		if req.MaxHeight > 0 && chosen.Height < req.MaxHeight {
			chosen.Note = fmt.Sprintf("quality downgraded: requested %s, best available %dp", req, chosen.Height)
		}
		return chosen, nil
	}
	if lowest != nil {
		// Nothing under the ceiling; keep the download resilient and note
		// the downgrade rather than failing the item.
		chosen := *lowest
		chosen.Note = fmt.Sprintf("quality downgraded: requested %s, best available %dp", req, chosen.Height)
		return chosen, nil
	}
	return model.FormatDescriptor{}, &model.NoMatchingFormatError{Request: req.String()}
}

func selectAudio(formats []model.FormatDescriptor, req model.QualityRequest) (model.FormatDescriptor, error) {
	var bestAudio, bestCombined *model.FormatDescriptor
	for i := range formats {
		f := &formats[i]
		switch {
		case f.IsAudioOnly():
			if bestAudio == nil || f.AudioBitrate > bestAudio.AudioBitrate {
				bestAudio = f
			}
		case !f.RequiresMerge:
			// combined stream carries an extractable audio track
			if bestCombined == nil || f.Height > bestCombined.Height {
				bestCombined = f
			}
		}
	}

	if bestAudio != nil {
		return *bestAudio, nil
	}
	if bestCombined != nil {
		chosen := *bestCombined
		chosen.AudioExtract = true
		return chosen, nil
	}
	return model.FormatDescriptor{}, &model.NoMatchingFormatError{Request: req.String()}
}

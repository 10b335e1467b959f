package scoring

import "shelfsearch/audiosearch/internal/domain"

var formatScores = map[domain.Format]float64{
	domain.FormatM4B:     10,
	domain.FormatM4A:     8,
	domain.FormatFLAC:    7,
	domain.FormatMP3:     6,
	domain.FormatAAC:     5,
	domain.FormatOGG:     4,
	domain.FormatUnknown: 1,
}

// formatScore looks up the format desirability table.
func formatScore(format domain.Format) float64 {
	if score, ok := formatScores[format]; ok {
		return score
	}
	return formatScores[domain.FormatUnknown]
}

// bitrateScore maps bitrate onto a piecewise-linear curve.
func bitrateScore(kbps int) float64 {
	switch {
	case kbps <= 0:
		return 0
	case kbps < 64:
		return 1
	case kbps < 128:
		return lerp(float64(kbps), 64, 128, 3, 8)
	case kbps <= 320:
		return lerp(float64(kbps), 128, 320, 8, 10)
	default:
		return 10
	}
}

func lerp(x, x0, x1, y0, y1 float64) float64 {
	if x1 == x0 {
		return y0
	}
	t := (x - x0) / (x1 - x0)
	return y0 + t*(y1-y0)
}

// metadataScore scores metadata completeness by field presence.
func metadataScore(result domain.Result) float64 {
	score := 0.0
	if result.Title != "" {
		score += 4
	}
	if result.Author != "" {
		score += 4
	}
	if result.SizeBytes > 0 {
		score += 2
	}
	return score
}

const audiobookBayAvailabilityFloor = 8.0

// isAudiobookBay reports whether a result's provenance is the AudiobookBay
// adapter, which never publishes swarm stats.
func isAudiobookBay(result domain.Result) bool {
	name := result.IndexerName
	return containsFold(name, "audiobookbay") || result.RawAttributes["_source"] == "direct-audiobookbay"
}

// availabilityScore is a step function over seeders, with the
// AudiobookBay floor exception.
func availabilityScore(result domain.Result) float64 {
	seeders := result.Seeders
	if isAudiobookBay(result) && seeders <= 1 {
		return audiobookBayAvailabilityFloor
	}
	switch {
	case seeders <= 0:
		return 0
	case seeders == 1:
		return 2
	case seeders < 5:
		return 4
	case seeders < 10:
		return 6
	case seeders < 50:
		return 8
	default:
		return 10
	}
}

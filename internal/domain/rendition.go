package domain

import "time"

// QualityTier is a named transcoding target: the nominal vertical resolution
// plus the bitrate and codec policy the transcoder applies for it.
type QualityTier struct {
	Name         string
	Height       int
	VideoBitrate string
	AudioBitrate string
	Codec        string
	Preset       string
}

// DefaultTiers returns the standard adaptive-playback ladder. All tiers are
// attempted for every asset; each is independent work.
func DefaultTiers() []QualityTier {
	return []QualityTier{
		{Name: "2160p", Height: 2160, VideoBitrate: "8000k", AudioBitrate: "192k", Codec: "h264", Preset: "medium"},
		{Name: "1080p", Height: 1080, VideoBitrate: "5000k", AudioBitrate: "192k", Codec: "h264", Preset: "medium"},
		{Name: "720p", Height: 720, VideoBitrate: "2500k", AudioBitrate: "192k", Codec: "h264", Preset: "medium"},
	}
}

// Rendition is one transcoded quality tier of an asset. A record exists only
// for tiers whose transcode succeeded; a failed tier leaves no record.
type Rendition struct {
	ID         string
	AssetID    string
	Tier       string
	StorageKey string
	Bitrate    string
	Codec      string
	CreatedAt  time.Time
}

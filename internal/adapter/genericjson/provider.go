// Package genericjson is the adapter-resolution fallback: when a
// direct-type indexer doesn't match any registered provider by explicit
// pin or host suffix, it's assumed to speak a plain
// `{results: [...]}` JSON contract close enough to what most ad-hoc private
// indexers expose.
package genericjson

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"shelfsearch/audiosearch/internal/adapter"
	"shelfsearch/audiosearch/internal/adapter/common"
	"shelfsearch/audiosearch/internal/domain"
)

const adapterKey = "generic-json"

type Adapter struct{}

// New constructs the generic JSON adapter. It ignores cfg at construction
// time like every other adapter factory; all per-request config is read
// from adapter.SearchParams.Config at call time.
func New(domain.IndexerConfig) adapter.Adapter { return Adapter{} }

func (Adapter) Key() string { return adapterKey }

// Domains is empty: this adapter is only ever reached as the registry's
// last-resort fallback, never by a host-suffix match.
func (Adapter) Domains() []string { return nil }

func (Adapter) BuildHealthRequest(cfg domain.IndexerConfig) *adapter.RequestSpec {
	return nil
}

func (Adapter) ParseHealthResponse([]byte) (adapter.HealthResult, error) {
	return adapter.HealthResult{
		Capabilities: domain.Capabilities{Search: true, DefaultLimit: 50, MaxLimit: 100},
	}, nil
}

func (Adapter) BuildSearchRequest(params adapter.SearchParams) adapter.RequestSpec {
	q := url.Values{}
	text := strings.TrimSpace(params.Query)
	if text == "" {
		text = strings.TrimSpace(params.Title + " " + params.Author)
	}
	q.Set("q", text)
	if params.Limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", params.Limit))
	}
	if len(params.Config.Categories) > 0 {
		q.Set("cat", strings.Join(params.Config.Categories, ","))
	}
	if params.Config.APIKey != "" {
		q.Set("apikey", params.Config.APIKey)
	}
	return adapter.RequestSpec{
		Method:      "GET",
		Params:      q,
		ExpectsJSON: true,
		Headers:     map[string]string{"Accept": "application/json"},
	}
}

// envelope is the `{results: [...]}` shape the fallback assumes, with
// field names generic enough to cover most ad-hoc JSON search endpoints.
type envelope struct {
	Results []item `json:"results"`
}

type item struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	Narrator    string `json:"narrator"`
	Series      string `json:"series"`
	Sequence    string `json:"sequence"`
	Language    string `json:"language"`
	Format      string `json:"format"`
	BitrateKbps int    `json:"bitrate_kbps"`
	SizeBytes   int64  `json:"size_bytes"`
	Seeders     int    `json:"seeders"`
	Peers       int    `json:"peers"`
	Category    string `json:"category"`
	DownloadURL string `json:"download_url"`
	InfoURL     string `json:"info_url"`
	InfoHash    string `json:"info_hash"`
	MagnetURI   string `json:"magnet_uri"`
}

func (Adapter) ParseSearchResults(payload []byte) ([]domain.Result, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("generic-json: invalid envelope: %w", err)
	}

	out := make([]domain.Result, 0, len(env.Results))
	for _, it := range env.Results {
		title := strings.TrimSpace(it.Title)
		if title == "" {
			continue
		}
		downloadURL := strings.TrimSpace(it.DownloadURL)
		if downloadURL == "" {
			downloadURL = strings.TrimSpace(it.MagnetURI)
		}
		if downloadURL == "" {
			continue
		}

		protocol := domain.ProtocolDirect
		infoHash := common.NormalizeInfoHash(it.InfoHash)
		magnet := strings.TrimSpace(it.MagnetURI)
		if strings.HasPrefix(strings.ToLower(downloadURL), "magnet:?") || infoHash != "" || common.IsTorrentURL(downloadURL) {
			protocol = domain.ProtocolTorrent
		}
		if magnet == "" && infoHash != "" {
			magnet = common.BuildMagnet(infoHash, title, common.DefaultPublicTrackers)
		}

		out = append(out, domain.Result{
			Title:       title,
			Author:      strings.TrimSpace(it.Author),
			Narrator:    strings.TrimSpace(it.Narrator),
			Series:      strings.TrimSpace(it.Series),
			Sequence:    strings.TrimSpace(it.Sequence),
			Language:    strings.TrimSpace(it.Language),
			Format:      normalizeFormat(it.Format),
			BitrateKbps: it.BitrateKbps,
			SizeBytes:   it.SizeBytes,
			Seeders:     defaultUnknown(it.Seeders),
			Peers:       defaultUnknown(it.Peers),
			Protocol:    protocol,
			Category:    strings.TrimSpace(it.Category),
			DownloadURL: downloadURL,
			InfoURL:     strings.TrimSpace(it.InfoURL),
			InfoHash:    infoHash,
			MagnetURI:   magnet,
		})
	}
	return out, nil
}

func normalizeFormat(raw string) domain.Format {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "m4b":
		return domain.FormatM4B
	case "m4a":
		return domain.FormatM4A
	case "mp3":
		return domain.FormatMP3
	case "flac":
		return domain.FormatFLAC
	case "aac":
		return domain.FormatAAC
	case "ogg":
		return domain.FormatOGG
	default:
		return domain.FormatUnknown
	}
}

// defaultUnknown maps a zero-value seeders/peers count (field absent from
// the envelope) to the -1 "unknown" sentinel rather than claiming zero.
func defaultUnknown(n int) int {
	if n == 0 {
		return -1
	}
	return n
}

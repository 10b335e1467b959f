// Package torznab implements the Torznab/Newznab wire protocol: an RSS feed
// of <item> elements carrying torznab:attr name/value pairs. Most public and
// private audiobook trackers that expose an indexer API (Jackett/Prowlarr
// proxies included) speak this dialect.
package torznab

import (
	"encoding/xml"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"shelfsearch/audiosearch/internal/adapter"
	"shelfsearch/audiosearch/internal/adapter/common"
	"shelfsearch/audiosearch/internal/domain"
)

const adapterKey = "torznab"

type Adapter struct{}

func New(domain.IndexerConfig) adapter.Adapter { return Adapter{} }

func (Adapter) Key() string { return adapterKey }

func (Adapter) Domains() []string { return nil }

// ExtractInfoHash implements adapter.InfoHashEnricher by computing the
// BitTorrent info hash from a fetched `.torrent` payload, for results whose
// feed item carried a download URL but no `infohash` attr or magnet.
func (Adapter) ExtractInfoHash(payload []byte) (string, error) {
	return ExtractInfoHashFromTorrent(payload)
}

func (Adapter) BuildHealthRequest(cfg domain.IndexerConfig) *adapter.RequestSpec {
	params := url.Values{"t": {"caps"}}
	if cfg.APIKey != "" {
		params.Set("apikey", cfg.APIKey)
	}
	return &adapter.RequestSpec{
		Method: "GET",
		Path:   "",
		Params: params,
		Headers: map[string]string{
			"Accept": "application/xml,text/xml",
		},
	}
}

func (Adapter) ParseHealthResponse(payload []byte) (adapter.HealthResult, error) {
	var caps capsResponse
	if err := xml.Unmarshal(payload, &caps); err != nil {
		return adapter.HealthResult{}, fmt.Errorf("invalid caps XML: %w", err)
	}
	cats := make([]string, 0, len(caps.Categories.Category))
	for _, c := range caps.Categories.Category {
		if name := strings.TrimSpace(c.Name); name != "" {
			cats = append(cats, name)
		}
	}
	return adapter.HealthResult{
		Version: strings.TrimSpace(caps.Server.Version),
		Capabilities: domain.Capabilities{
			Search:       true,
			BookSearch:   caps.Searching.BookSearch.Available == "yes",
			AuthorSearch: caps.Searching.Search.Available == "yes",
			Categories:   cats,
			DefaultLimit: 100,
			MaxLimit:     100,
		},
	}, nil
}

func (Adapter) BuildSearchRequest(params adapter.SearchParams) adapter.RequestSpec {
	q := url.Values{"t": {"search"}}
	query := strings.TrimSpace(params.Query)
	if query == "" {
		query = strings.TrimSpace(params.Title + " " + params.Author)
	}
	q.Set("q", query)
	q.Set("extended", "1")
	if params.Config.APIKey != "" {
		q.Set("apikey", params.Config.APIKey)
	}
	if len(params.Config.Categories) > 0 {
		q.Set("cat", strings.Join(params.Config.Categories, ","))
	}
	limit := params.Limit
	if limit <= 0 {
		limit = 100
	}
	q.Set("limit", strconv.Itoa(limit))
	if params.Offset > 0 {
		q.Set("offset", strconv.Itoa(params.Offset))
	}

	return adapter.RequestSpec{
		Method: "GET",
		Params: q,
		Headers: map[string]string{
			"Accept": "application/xml,text/xml,application/rss+xml",
		},
	}
}

func (Adapter) ParseSearchResults(payload []byte) ([]domain.Result, error) {
	var rss torznabResponse
	if err := xml.Unmarshal(payload, &rss); err != nil {
		return nil, fmt.Errorf("invalid torznab XML: %w", err)
	}

	results := make([]domain.Result, 0, len(rss.Channel.Items))
	for _, item := range rss.Channel.Items {
		result, ok := itemToResult(item)
		if !ok {
			continue
		}
		results = append(results, result)
	}
	return results, nil
}

func itemToResult(item torznabItem) (domain.Result, bool) {
	title := strings.TrimSpace(item.Title)
	if title == "" {
		return domain.Result{}, false
	}

	attrs := make(map[string]string, len(item.Attrs))
	for _, attr := range item.Attrs {
		key := strings.ToLower(strings.TrimSpace(attr.Name))
		if key == "" {
			continue
		}
		if _, exists := attrs[key]; exists {
			continue
		}
		attrs[key] = strings.TrimSpace(attr.Value)
	}

	magnet := firstMagnet(item.Guid, item.Link, item.Enclosure.URL)
	infoHash := common.NormalizeInfoHash(attrs["infohash"])
	if infoHash == "" && magnet != "" {
		infoHash = common.NormalizeInfoHash(extractInfoHashFromMagnet(magnet))
	}
	if magnet == "" && infoHash != "" {
		magnet = common.BuildMagnet(infoHash, title, common.DefaultPublicTrackers)
	}

	// Torrent URL preference: an enclosure that declares itself a torrent
	// (by content type or .torrent path), then the plain <link>, then any
	// other enclosure URL, then a magnet built from the info hash.
	enclosureURL := strings.TrimSpace(item.Enclosure.URL)
	downloadURL := ""
	if enclosureURL != "" &&
		(strings.EqualFold(strings.TrimSpace(item.Enclosure.Type), "application/x-bittorrent") ||
			common.IsTorrentURL(enclosureURL)) {
		downloadURL = enclosureURL
	}
	if downloadURL == "" {
		if link := strings.TrimSpace(item.Link); link != "" && !strings.HasPrefix(strings.ToLower(link), "magnet:?") {
			downloadURL = link
		}
	}
	if downloadURL == "" {
		downloadURL = enclosureURL
	}
	if downloadURL == "" {
		downloadURL = magnet
	}
	if downloadURL == "" {
		return domain.Result{}, false
	}

	sizeBytes := parseI64(attrs["size"])
	if sizeBytes <= 0 && item.Enclosure.Length > 0 {
		sizeBytes = item.Enclosure.Length
	}
	if sizeBytes <= 0 {
		sizeBytes = common.ParseHumanSize(attrs["size"])
	}

	format, bitrate := bracketedOrAttr(title, attrs)

	var published time.Time
	if parsed := parsePubDate(item.PubDate); parsed != nil {
		published = *parsed
	}

	indexerName := strings.TrimSpace(attrs["indexer"])
	if indexerName == "" {
		indexerName = strings.TrimSpace(attrs["tracker"])
	}

	infoURL := firstHTTPURL(item.Comments, attrs["comments"], attrs["details"], attrs["info"], item.Link, item.Guid)

	return domain.Result{
		IndexerName:   indexerName,
		Title:         title,
		Author:        strings.TrimSpace(attrs["author"]),
		Narrator:      strings.TrimSpace(attrs["narrator"]),
		Series:        strings.TrimSpace(attrs["series"]),
		Sequence:      firstNonEmpty(attrs["sequence"], attrs["booknumber"]),
		Language:      strings.TrimSpace(attrs["language"]),
		Format:        format,
		BitrateKbps:   bitrate,
		SizeBytes:     sizeBytes,
		Seeders:       parseSwarmCount(attrs["seeders"]),
		Peers:         parseSwarmCount(attrs["peers"]),
		Protocol:      domain.ProtocolTorrent,
		Category:      strings.TrimSpace(attrs["category"]),
		PublishDate:   published,
		DownloadURL:   downloadURL,
		InfoURL:       infoURL,
		InfoHash:      infoHash,
		MagnetURI:     magnet,
		RawAttributes: attrs,
	}, true
}

func bracketedOrAttr(title string, attrs map[string]string) (domain.Format, int) {
	format := domain.Format(strings.ToLower(strings.TrimSpace(attrs["format"])))
	bitrate := parseInt(attrs["bitrate"])
	if format == "" || bitrate == 0 {
		bracketFormat, bracketBitrate := common.ExtractBracketedQuality(title)
		if format == "" && bracketFormat != "" {
			format = domain.Format(bracketFormat)
		}
		if bitrate == 0 && bracketBitrate != 0 {
			bitrate = bracketBitrate
		}
	}
	if format == "" {
		format = domain.FormatUnknown
	}
	return format, bitrate
}

func firstNonEmpty(candidates ...string) string {
	for _, candidate := range candidates {
		if value := strings.TrimSpace(candidate); value != "" {
			return value
		}
	}
	return ""
}

func firstHTTPURL(candidates ...string) string {
	for _, candidate := range candidates {
		value := strings.TrimSpace(candidate)
		if value == "" {
			continue
		}
		lower := strings.ToLower(value)
		if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
			return value
		}
	}
	return ""
}

type capsResponse struct {
	Server     capsServer     `xml:"server"`
	Searching  capsSearching  `xml:"searching"`
	Categories capsCategories `xml:"categories"`
}

type capsServer struct {
	Version string `xml:"version,attr"`
}

type capsSearching struct {
	Search     capsSearchMode `xml:"search"`
	BookSearch capsSearchMode `xml:"book-search"`
}

type capsSearchMode struct {
	Available string `xml:"available,attr"`
}

type capsCategories struct {
	Category []capsCategory `xml:"category"`
}

type capsCategory struct {
	Name string `xml:"name,attr"`
}

type torznabResponse struct {
	Channel torznabChannel `xml:"channel"`
}

type torznabChannel struct {
	Items []torznabItem `xml:"item"`
}

type torznabItem struct {
	Title     string           `xml:"title"`
	Guid      string           `xml:"guid"`
	Link      string           `xml:"link"`
	Comments  string           `xml:"comments"`
	PubDate   string           `xml:"pubDate"`
	Enclosure torznabEnclosure `xml:"enclosure"`
	Attrs     []torznabAttr    `xml:"attr"`
}

type torznabEnclosure struct {
	URL    string `xml:"url,attr"`
	Type   string `xml:"type,attr"`
	Length int64  `xml:"length,attr"`
}

type torznabAttr struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

func firstMagnet(candidates ...string) string {
	for _, candidate := range candidates {
		value := strings.TrimSpace(candidate)
		if strings.HasPrefix(strings.ToLower(value), "magnet:?") {
			return value
		}
	}
	return ""
}

func extractInfoHashFromMagnet(rawMagnet string) string {
	value := strings.TrimSpace(rawMagnet)
	if value == "" {
		return ""
	}
	parsed, err := url.Parse(value)
	if err != nil {
		return ""
	}
	return parsed.Query().Get("xt")
}

func parseInt(raw string) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return value
}

// parseSwarmCount reports -1 for an absent or unparseable seeder/peer attr;
// a feed that omits swarm stats is "unknown", not "zero seeders".
func parseSwarmCount(raw string) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return -1
	}
	return value
}

func parseI64(raw string) int64 {
	value, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0
	}
	return value
}

func parsePubDate(raw string) *time.Time {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil
	}
	formats := []string{
		time.RFC1123Z,
		time.RFC1123,
		time.RFC822Z,
		time.RFC822,
		time.RFC3339,
	}
	for _, format := range formats {
		parsed, err := time.Parse(format, value)
		if err == nil {
			utc := parsed.UTC()
			return &utc
		}
	}
	return nil
}

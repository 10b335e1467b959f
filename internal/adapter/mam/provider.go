// Package mam implements the MyAnonamouse direct-site wire contract: a
// single authenticated JSON search endpoint with indexed repeated
// `tor[...]` parameters instead of a querystring, and session identity
// carried both as a bearer token and as cookies.
package mam

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"shelfsearch/audiosearch/internal/adapter"
	"shelfsearch/audiosearch/internal/adapter/common"
	"shelfsearch/audiosearch/internal/domain"
)

const adapterKey = "mam"

// Main category allow list: Torznab-style config categories in the
// 3xxx (audio) / 7xxx (ebook) ranges map to MAM's own main_cat codes.
const (
	mainCatAudiobooks = "13"
	mainCatEbooks     = "14"
)

var ebookFiletypes = map[string]struct{}{
	"epub": {}, "pdf": {}, "mobi": {}, "azw": {}, "azw3": {}, "cbz": {}, "cbr": {},
}

type Adapter struct{}

func New(domain.IndexerConfig) adapter.Adapter { return Adapter{} }

func (Adapter) Key() string { return adapterKey }

func (Adapter) Domains() []string { return []string{"myanonamouse.net"} }

func (Adapter) BuildHealthRequest(cfg domain.IndexerConfig) *adapter.RequestSpec {
	form := searchForm("*", cfg, 1, 0)
	return &adapter.RequestSpec{
		Method:      "POST",
		Path:        "/tor/js/loadSearchJSONbasic.php",
		Form:        form,
		Headers:     authHeaders(cfg),
		ExpectsJSON: true,
	}
}

func (Adapter) ParseHealthResponse(payload []byte) (adapter.HealthResult, error) {
	var resp searchResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return adapter.HealthResult{}, fmt.Errorf("invalid MAM JSON: %w", err)
	}
	return adapter.HealthResult{
		Capabilities: domain.Capabilities{
			Search:       true,
			BookSearch:   true,
			AuthorSearch: true,
			Categories:   []string{mainCatAudiobooks, mainCatEbooks},
			DefaultLimit: 100,
			MaxLimit:     100,
		},
	}, nil
}

func (Adapter) BuildSearchRequest(params adapter.SearchParams) adapter.RequestSpec {
	text := strings.TrimSpace(params.Query)
	if text == "" {
		text = strings.TrimSpace(params.Title + " " + params.Author)
	}
	if text == "" {
		text = "*"
	}
	limit := params.Limit
	if limit <= 0 {
		limit = 100
	}
	form := searchForm(text, params.Config, limit, params.Offset)
	return adapter.RequestSpec{
		Method:      "POST",
		Path:        "/tor/js/loadSearchJSONbasic.php",
		Form:        form,
		Headers:     authHeaders(params.Config),
		ExpectsJSON: true,
	}
}

// searchForm builds the indexed tor[...] parameter set MAM expects instead
// of a flat querystring.
func searchForm(text string, cfg domain.IndexerConfig, perPage, startNumber int) url.Values {
	form := url.Values{}
	form.Set("tor[text]", text)
	form.Set("tor[searchType]", "all")
	form.Set("tor[searchIn]", "torrents")
	for _, field := range []string{"title", "author", "narrator", "series", "description", "filenames"} {
		form.Set("tor[srchIn]["+field+"]", "true")
	}
	for i, cat := range mamCategoryIDs(cfg.Categories) {
		form.Set(fmt.Sprintf("tor[cat][%d]", i), cat)
	}
	for i, lang := range cfg.Languages {
		form.Set(fmt.Sprintf("tor[browse_lang][%d]", i), lang)
	}
	form.Set("tor[perpage]", strconv.Itoa(perPage))
	form.Set("tor[startNumber]", strconv.Itoa(startNumber))
	return form
}

// mamCategoryIDs keeps only configured category codes that are already in
// MAM's own numeric tracker-category range (below 1000, so 4-digit Torznab
// codes are left out); the 13/14 main-category mapping used for
// post-filter enforcement happens separately in the indexer.
func mamCategoryIDs(categories []string) []string {
	var ids []string
	for _, c := range categories {
		if n, err := strconv.Atoi(strings.TrimSpace(c)); err == nil && n > 0 && n < 1000 {
			ids = append(ids, strconv.Itoa(n))
		}
	}
	return ids
}

func authHeaders(cfg domain.IndexerConfig) map[string]string {
	headers := map[string]string{
		"Accept": "application/json",
	}
	if cfg.SessionID != "" {
		headers["Authorization"] = "Bearer " + cfg.SessionID
		headers["X-Session-ID"] = cfg.SessionID
		headers["Cookie"] = strings.Join([]string{
			"mam_id=" + cfg.SessionID,
			"session=" + cfg.SessionID,
			"session_id=" + cfg.SessionID,
		}, "; ")
	}
	return headers
}

func (Adapter) ParseSearchResults(payload []byte) ([]domain.Result, error) {
	var resp searchResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, fmt.Errorf("invalid MAM JSON: %w", err)
	}

	results := make([]domain.Result, 0, len(resp.Data))
	for _, item := range resp.Data {
		result, ok := itemToResult(item)
		if !ok {
			continue
		}
		results = append(results, result)
	}
	return results, nil
}

type searchResponse struct {
	Data  []mamItem `json:"data"`
	Total int       `json:"total"`
}

type mamItem struct {
	ID           flexNumber `json:"id"`
	Title        string     `json:"title"`
	AuthorInfo   string     `json:"author_info"`
	NarratorInfo string     `json:"narrator_info"`
	SeriesInfo   string     `json:"series_info"`
	Filetype     string     `json:"filetype"`
	Size         string     `json:"size"`
	Seeders      flexNumber `json:"seeders"`
	Leechers     flexNumber `json:"leechers"`
	Added        string     `json:"added"`
	LangCode     string     `json:"lang_code"`
	MainCat      string     `json:"main_cat"`
	MediaType    flexNumber `json:"mediatype"`
	Tags         string     `json:"tags"`
}

// flexNumber tolerates MAM's habit of encoding numeric fields as either
// JSON numbers or quoted strings, depending on the endpoint revision.
type flexNumber string

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	*n = flexNumber(strings.Trim(strings.TrimSpace(string(b)), `"`))
	return nil
}

func (n flexNumber) String() string { return string(n) }

func (n flexNumber) Int() int {
	v, err := strconv.Atoi(string(n))
	if err != nil {
		return 0
	}
	return v
}

// itemToResult applies the ebook drop rules: mediatype=2, main_cat=14
// (ebook), a bare ebook filetype, or ebook-indicating tags with no audio
// filetype present all exclude an item before it reaches the scorer.
func itemToResult(item mamItem) (domain.Result, bool) {
	if item.MediaType.String() == "2" {
		return domain.Result{}, false
	}
	if item.MainCat == mainCatEbooks {
		return domain.Result{}, false
	}
	filetype := strings.ToLower(strings.TrimSpace(item.Filetype))
	if _, isEbook := ebookFiletypes[filetype]; isEbook {
		return domain.Result{}, false
	}
	if formatFromFiletype(filetype) == domain.FormatUnknown && looksLikeEbook(item.Tags, item.Title) {
		return domain.Result{}, false
	}

	title := strings.TrimSpace(item.Title)
	if title == "" {
		return domain.Result{}, false
	}

	author := extractNameField(item.AuthorInfo)
	narrator := extractNameField(item.NarratorInfo)
	series, sequence := extractSeriesField(item.SeriesInfo)

	var published time.Time
	if parsed, err := time.Parse("2006-01-02 15:04:05", strings.TrimSpace(item.Added)); err == nil {
		published = parsed.UTC()
	}

	id := strings.TrimSpace(item.ID.String())
	if id == "" {
		return domain.Result{}, false
	}
	downloadURL := "/tor/download.php?tid=" + id
	infoURL := "/t/" + id

	return domain.Result{
		IndexerName: adapterKey,
		IndexerID:   id,
		Title:       title,
		Author:      author,
		Narrator:    narrator,
		Series:      series,
		Sequence:    sequence,
		Language:    strings.TrimSpace(item.LangCode),
		Format:      formatFromFiletype(filetype),
		SizeBytes:   common.ParseHumanSize(item.Size),
		Seeders:     item.Seeders.Int(),
		Peers:       item.Seeders.Int() + item.Leechers.Int(),
		Protocol:    domain.ProtocolTorrent,
		Category:    strings.TrimSpace(item.MainCat),
		PublishDate: published,
		DownloadURL: downloadURL,
		InfoURL:     infoURL,
		RawAttributes: map[string]string{
			"mediatype": item.MediaType.String(),
			"main_cat":  item.MainCat,
		},
	}, true
}

func looksLikeEbook(tags, title string) bool {
	haystack := strings.ToLower(tags + " " + title)
	for _, hint := range []string{"epub", "pdf", "ebook", "e-book"} {
		if strings.Contains(haystack, hint) {
			return true
		}
	}
	return false
}

func formatFromFiletype(filetype string) domain.Format {
	switch filetype {
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
	case "ogg", "opus":
		return domain.FormatOGG
	default:
		return domain.FormatUnknown
	}
}

// extractNameField reads MAM's JSON-encoded name map (e.g. {"123":"Author
// Name"}) and returns the first value, or the raw string if it isn't JSON.
func extractNameField(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	var asMap map[string]string
	if err := json.Unmarshal([]byte(raw), &asMap); err == nil {
		for _, v := range asMap {
			return strings.TrimSpace(v)
		}
		return ""
	}
	return raw
}

// extractSeriesField reads MAM's series_info JSON map of
// id -> [name, sequence] pairs and returns the first entry.
func extractSeriesField(raw string) (name string, sequence string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ""
	}
	var asMap map[string][]string
	if err := json.Unmarshal([]byte(raw), &asMap); err == nil {
		for _, pair := range asMap {
			if len(pair) > 0 {
				name = strings.TrimSpace(pair[0])
			}
			if len(pair) > 1 {
				sequence = strings.TrimSpace(pair[1])
			}
			return name, sequence
		}
	}
	return "", ""
}


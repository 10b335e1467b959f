// Package audiobookbay scrapes the AudiobookBay site: no API, just a
// WordPress-style search page linking to per-torrent detail pages. Parsing
// uses goquery for DOM traversal instead of the regex scraping the rest of
// this lineage's direct-site providers use, because AudiobookBay's markup
// is irregular enough that a tag-soup regex would be brittle.
package audiobookbay

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"shelfsearch/audiosearch/internal/adapter"
	"shelfsearch/audiosearch/internal/adapter/common"
	"shelfsearch/audiosearch/internal/domain"
)

const adapterKey = "audiobookbay"

// AudiobookBay publishes no swarm stats; results are always shown as having
// exactly one seeder so the quality assessor's availability floor exception
// applies uniformly instead of scoring them as dead.
const fixedSeederCount = 1

type Adapter struct{}

func New(domain.IndexerConfig) adapter.Adapter { return Adapter{} }

func (Adapter) Key() string { return adapterKey }

// Domains lists the site's known host suffixes; the tracker has hopped
// TLDs over the years, so the mirrors are all claimed here.
func (Adapter) Domains() []string {
	return []string{"audiobookbay.is", "audiobookbay.se", "audiobookbay.lu", "audiobookbay.fi"}
}

func (Adapter) BuildHealthRequest(cfg domain.IndexerConfig) *adapter.RequestSpec {
	return &adapter.RequestSpec{
		Method: "GET",
		Path:   "/",
	}
}

func (Adapter) ParseHealthResponse(payload []byte) (adapter.HealthResult, error) {
	return adapter.HealthResult{
		Capabilities: domain.Capabilities{
			Search:       true,
			BookSearch:   true,
			AuthorSearch: true,
			DefaultLimit: 50,
			MaxLimit:     50,
		},
	}, nil
}

// BuildSearchRequest builds the phase-1 search-page request. ParseSearchResults
// is never actually used for this adapter (the indexer drives the
// MultiStepSearcher sequence instead) but it's implemented to satisfy the
// Adapter interface and to fail loudly if ever called directly by mistake.
func (Adapter) BuildSearchRequest(params adapter.SearchParams) adapter.RequestSpec {
	text := strings.TrimSpace(params.Query)
	if text == "" {
		text = strings.TrimSpace(params.Title + " " + params.Author)
	}
	q := url.Values{}
	q.Set("s", text)
	q.Set("tt", "1")
	return adapter.RequestSpec{Method: "GET", Path: "/", Params: q}
}

func (Adapter) ParseSearchResults([]byte) ([]domain.Result, error) {
	return nil, fmt.Errorf("audiobookbay: use ParseSearchPage/ParseDetailPage, not single-shot ParseSearchResults")
}

// searchPageCount is how many search-result pages phase 1 fetches: the
// landing page plus one page of extended paging.
const searchPageCount = 2

// SearchPageCount reports the number of search-result pages to fetch.
func (Adapter) SearchPageCount() int { return searchPageCount }

// BuildSearchPageRequest builds the page-N variant of the phase-1 request
// (AudiobookBay's "extended paging" at /page/<n>/).
func (Adapter) BuildSearchPageRequest(params adapter.SearchParams, page int) adapter.RequestSpec {
	text := strings.TrimSpace(params.Query)
	if text == "" {
		text = strings.TrimSpace(params.Title + " " + params.Author)
	}
	q := url.Values{}
	q.Set("s", text)
	q.Set("tt", "1")
	path := "/"
	if page > 1 {
		path = fmt.Sprintf("/page/%d/", page)
	}
	return adapter.RequestSpec{Method: "GET", Path: path, Params: q}
}

// ParseSearchPage collects unique detail-page URLs from div.post/div.postTitle
// anchors on a search-results page.
func (Adapter) ParseSearchPage(payload []byte) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(payload)))
	if err != nil {
		return nil, fmt.Errorf("invalid search page HTML: %w", err)
	}

	seen := make(map[string]struct{})
	var urls []string
	doc.Find("div.post div.postTitle a, div.post h2 a").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}
		if _, dup := seen[href]; dup {
			return
		}
		seen[href] = struct{}{}
		urls = append(urls, href)
	})
	return urls, nil
}

func (Adapter) BuildDetailRequest(detailURL string) adapter.RequestSpec {
	if strings.Contains(detailURL, "://") {
		return adapter.RequestSpec{Method: "GET", AbsoluteURL: detailURL}
	}
	return adapter.RequestSpec{Method: "GET", Path: detailURL}
}

// ParseDetailPage extracts the fields AudiobookBay's detail page scatters
// across labeled table/div cells: info hash, combined size, format, author,
// category, trackers, and a fallback .torrent download link.
func (Adapter) ParseDetailPage(payload []byte, detailURL string) (domain.Result, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(payload)))
	if err != nil {
		return domain.Result{}, false
	}

	title := common.CleanHTMLText(doc.Find("div.postTitle h1, h1.entry-title").First().Text())
	if title == "" {
		title = common.CleanHTMLText(doc.Find("title").First().Text())
	}

	infoHash := common.NormalizeInfoHash(findLabeledValue(doc, "Info Hash"))
	sizeText := findLabeledValue(doc, "Combined File Size")
	format := strings.ToLower(strings.TrimSpace(doc.Find("div.desc .format").First().Text()))
	author := common.CleanHTMLText(doc.Find("div.desc .author").First().Text())
	category := common.CleanHTMLText(doc.Find("div.desc .category").First().Text())

	var trackers []string
	doc.Find("td, div").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		label := strings.ToLower(strings.TrimSpace(s.Text()))
		if strings.Contains(label, "tracker") || strings.Contains(label, "announce") {
			if href, ok := s.Find("a").Attr("href"); ok {
				trackers = append(trackers, strings.TrimSpace(href))
			}
		}
		return true
	})
	if len(trackers) == 0 {
		trackers = common.DefaultPublicTrackers
	}

	torrentLink := ""
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		if common.IsTorrentURL(href) || strings.Contains(strings.ToLower(href), "downld") {
			torrentLink = strings.TrimSpace(href)
			return false
		}
		return true
	})

	cover, _ := doc.Find("div.postContent img, div.post img").First().Attr("src")

	magnet := ""
	if infoHash != "" {
		magnet = common.BuildMagnet(infoHash, title, trackers)
	}
	downloadURL := torrentLink
	if downloadURL == "" {
		downloadURL = magnet
	}
	if downloadURL == "" {
		return domain.Result{}, false
	}
	if title == "" {
		return domain.Result{}, false
	}

	return domain.Result{
		IndexerName: adapterKey,
		Title:       title,
		Author:      author,
		Format:      bracketedOrDetected(title, format),
		SizeBytes:   common.ParseHumanSize(sizeText),
		Seeders:     fixedSeederCount,
		Peers:       fixedSeederCount,
		Protocol:    domain.ProtocolTorrent,
		Category:    category,
		DownloadURL: downloadURL,
		InfoURL:     detailURL,
		InfoHash:    infoHash,
		MagnetURI:   magnet,
		RawAttributes: map[string]string{
			"_source": "direct-audiobookbay",
			"cover":   strings.TrimSpace(cover),
		},
	}, true
}

func bracketedOrDetected(title, detected string) domain.Format {
	if f := domain.Format(detected); f != "" {
		switch f {
		case domain.FormatM4B, domain.FormatM4A, domain.FormatMP3, domain.FormatFLAC, domain.FormatAAC, domain.FormatOGG:
			return f
		}
	}
	if bracketFormat, _ := common.ExtractBracketedQuality(title); bracketFormat != "" {
		return domain.Format(bracketFormat)
	}
	return domain.FormatUnknown
}

func findLabeledValue(doc *goquery.Document, label string) string {
	label = strings.ToLower(label)
	var value string
	doc.Find("td, li, div, span").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.ToLower(strings.TrimSpace(s.Text()))
		if !strings.HasPrefix(text, label) {
			return true
		}
		full := common.CleanHTMLText(s.Text())
		parts := strings.SplitN(full, ":", 2)
		if len(parts) == 2 {
			value = strings.TrimSpace(parts[1])
		} else {
			next := s.Next()
			value = common.CleanHTMLText(next.Text())
		}
		return false
	})
	return value
}

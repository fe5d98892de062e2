package market

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/stex99/dcf-tool/pkg/dcf/types"
)

// DefaultScrapeURL is Yahoo's cash-flow page; %s is the symbol.
const DefaultScrapeURL = "https://finance.yahoo.com/quote/%s/cash-flow"

// DefaultScrapeScale converts Yahoo's cash-flow page figures, which are in
// thousands, to whole units.
const DefaultScrapeScale = 1000

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

// ScrapeStatements reads the cash-flow table from a statement web page.
type ScrapeStatements struct {
	Client    *http.Client
	URL       string // format string with one %s for the symbol
	UserAgent string
	// Scale multiplies every figure when the page does not state its unit.
	// Zero means DefaultScrapeScale.
	Scale float64
}

func (s ScrapeStatements) Statement(ctx context.Context, sym string) (*types.Statement, error) {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	tmpl := s.URL
	if tmpl == "" {
		tmpl = DefaultScrapeURL
	}
	ua := s.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf(tmpl, url.PathEscape(sym)), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch statement: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP status %d", resp.StatusCode)
	}
	scale := s.Scale
	if scale == 0 {
		scale = DefaultScrapeScale
	}
	return ParseStatementHTML(resp.Body, scale)
}

// ParseStatementHTML extracts rows marked data-test="fin-row". The label is
// the row's title attribute (or first span); values are the fin-col cells,
// most recent first, in whole units. A caption such as "All numbers in
// thousands" sets the unit; without one every figure is multiplied by scale.
// A page without rows yields an empty statement.
func ParseStatementHTML(r io.Reader, scale float64) (*types.Statement, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	if unit, ok := captionScale(doc.Find("body").Text()); ok {
		scale = unit
	}
	if scale <= 0 {
		scale = 1
	}

	st := &types.Statement{}
	doc.Find("div[data-test='fin-row']").Each(func(_ int, row *goquery.Selection) {
		label := strings.TrimSpace(row.Find("[title]").First().AttrOr("title", ""))
		if label == "" {
			label = strings.TrimSpace(row.Find("span").First().Text())
		}
		if label == "" {
			return
		}
		var values []float64
		row.Find("div[data-test='fin-col']").Each(func(_ int, col *goquery.Selection) {
			values = append(values, parseCell(col.Text())*scale)
		})
		st.Items = append(st.Items, types.LineItem{Label: label, Values: values})
	})
	return st, nil
}

var captionRe = regexp.MustCompile(`(?i)all numbers in (thousands|millions|billions)`)

func captionScale(text string) (float64, bool) {
	m := captionRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	switch strings.ToLower(m[1]) {
	case "thousands":
		return 1e3, true
	case "millions":
		return 1e6, true
	default:
		return 1e9, true
	}
}

// parseCell reads "1,234", "-1,234" or "(1,234)". Anything else is NaN.
func parseCell(s string) float64 {
	s = strings.TrimSpace(s)
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	s = strings.ReplaceAll(s, ",", "")
	if s == "" || s == "-" || s == "--" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	if neg {
		v = -v
	}
	return v
}

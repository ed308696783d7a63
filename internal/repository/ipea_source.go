package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"

	"BrentCast/internal/domain/models"
	domrepo "BrentCast/internal/domain/repository"
	xhttp "BrentCast/pkg/http"
	applogger "BrentCast/pkg/logger"
	"BrentCast/pkg/util"
)

const ipeaTableClass = "dxgvTable"

var brDateRe = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)

// IpeaSource scrapes the daily Brent series from the ipeadata page.
type IpeaSource struct {
	client *xhttp.Client
	url    string
	from   time.Time
	to     time.Time
	l      *applogger.Logger
}

var _ domrepo.PriceSource = (*IpeaSource)(nil)

// NewIpeaSource builds the scraper. Zero from/to leave that side of the window open.
func NewIpeaSource(client *xhttp.Client, url string, from, to time.Time, l *applogger.Logger) *IpeaSource {
	if l == nil {
		l = applogger.Nop()
	}
	return &IpeaSource{client: client, url: url, from: from, to: to, l: l}
}

func (s *IpeaSource) Name() string { return "ipea" }

func (s *IpeaSource) Load(ctx context.Context) (*models.HistoricalSeries, error) {
	start := time.Now()
	var body []byte
	err := s.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    s.url,
	}, &body)
	if err != nil {
		var se *xhttp.StatusError
		if errors.As(err, &se) {
			return nil, &models.UpstreamUnavailableError{Source: s.Name(), Err: fmt.Errorf("status %d", se.Code)}
		}
		return nil, &models.UpstreamUnavailableError{Source: s.Name(), Err: err}
	}

	points, err := parseIpeaTable(body)
	if err != nil {
		return nil, err
	}
	series := models.NewHistoricalSeries(points, s.Name())
	series.Points = series.Between(s.from, s.to)

	s.l.Info("ipea series loaded",
		applogger.Int("rows", series.Len()),
		applogger.Int("bytes", len(body)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return series, nil
}

// parseIpeaTable extracts (date, price) rows from the first dxgvTable. Rows whose
// first cell is not a dd/mm/yyyy date (headers, pager) are skipped.
func parseIpeaTable(page []byte) ([]models.TimeSeriesPoint, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, &models.UpstreamUnavailableError{Source: "ipea", Err: fmt.Errorf("parse html: %w", err)}
	}
	table := findTable(doc)
	if table == nil {
		return nil, &models.UpstreamUnavailableError{Source: "ipea", Err: errors.New("price table not found")}
	}

	var points []models.TimeSeriesPoint
	var bad error
	row := 0
	walk(table, func(n *html.Node) bool {
		if bad != nil {
			return false
		}
		if n.Type != html.ElementNode || n.Data != "tr" {
			return true
		}
		row++
		cells := cellTexts(n)
		if len(cells) < 2 || !brDateRe.MatchString(cells[0]) {
			return false
		}
		date, derr := time.Parse(util.BRDate, cells[0])
		if derr != nil {
			bad = &models.DataValidationError{Field: "date", Row: row, Value: cells[0], Reason: "not a calendar date"}
			return false
		}
		price, perr := util.ParseDecimal(cells[1])
		if perr != nil {
			bad = &models.DataValidationError{Field: "price", Row: row, Value: cells[1], Reason: "not a decimal number"}
			return false
		}
		points = append(points, models.TimeSeriesPoint{Date: date, Price: price})
		return false
	})
	if bad != nil {
		return nil, bad
	}
	if len(points) == 0 {
		return nil, &models.UpstreamUnavailableError{Source: "ipea", Err: errors.New("price table has no rows")}
	}
	return points, nil
}

func findTable(root *html.Node) *html.Node {
	var found *html.Node
	walk(root, func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if n.Type == html.ElementNode && n.Data == "table" && hasClass(n, ipeaTableClass) {
			found = n
			return false
		}
		return true
	})
	return found
}

// walk visits n depth-first; fn returns false to skip a node's children.
func walk(n *html.Node, fn func(*html.Node) bool) {
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key == "class" {
			for _, f := range strings.Fields(a.Val) {
				if f == class {
					return true
				}
			}
		}
	}
	return false
}

func cellTexts(tr *html.Node) []string {
	var out []string
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "td" {
			out = append(out, strings.TrimSpace(textOf(c)))
		}
	}
	return out
}

func textOf(n *html.Node) string {
	var b strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		return true
	})
	return strings.ReplaceAll(b.String(), "\u00a0", " ")
}

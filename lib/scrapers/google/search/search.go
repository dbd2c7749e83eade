// Package search scrapes the Google search results page for the
// quick-answer panel and the suggestqueries endpoint for completions.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/cookiejar"
	"strings"
	"studykit-backend/lib/htmlutil"
	"studykit-backend/lib/scrapeerr"
	"studykit-backend/lib/telemetry"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/google/search")

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

type Client struct {
	Http        *resty.Client
	SuggestHttp *resty.Client
}

type ClientOptions struct {
	// defaults to https://www.google.com
	BaseUrl string
	// defaults to https://suggestqueries.google.com
	SuggestBaseUrl string
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.BaseUrl == "" {
		opts.BaseUrl = "https://www.google.com"
	}
	if opts.SuggestBaseUrl == "" {
		opts.SuggestBaseUrl = "https://suggestqueries.google.com"
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.SetHeader("user-agent", browserUserAgent)
	client.SetTimeout(time.Second * 30)
	telemetry.InstrumentResty(client, "scrapers/google/search/http")

	suggest := resty.New()
	suggest.SetBaseURL(opts.SuggestBaseUrl)
	suggest.SetHeader("user-agent", browserUserAgent)
	suggest.SetTimeout(time.Second * 30)
	telemetry.InstrumentResty(suggest, "scrapers/google/suggest/http")

	return &Client{Http: client, SuggestHttp: suggest}, nil
}

type Answer struct {
	// the short answer inside the panel
	Text string
	// the raw panel markup the answer was pulled from
	HTML string
	// the featured snippet's heading, if any
	Title string
	// where the answer was lifted from, if attributed
	Source htmlutil.Anchor
}

// the answer panel markup shifts every few months, each selector here
// is one generation of it. first non-empty match wins.
var answerSelectors = []string{
	"div.Z0LcW",
	"span.hgKElc",
	"div.IZ6rdc",
	"div.kno-rdesc span",
}

func (c *Client) AnswerBox(ctx context.Context, query string) (Answer, error) {
	ctx, span := tracer.Start(ctx, "AnswerBox")
	defer span.End()
	span.SetAttributes(attribute.String("query", query))

	res, err := c.Http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":  query,
			"hl": "en",
			"gl": "us",
		}).
		Get("/search")
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch results page")
		return Answer{}, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.SetStatus(codes.Error, "failed to parse html")
		return Answer{}, err
	}

	var text, panelHtml string
	for _, selector := range answerSelectors {
		matched := doc.Find(selector).First()
		text = htmlutil.CleanText(matched.Text())
		if text != "" {
			span.SetAttributes(attribute.String("matched_selector", selector))
			panelHtml, _ = goquery.OuterHtml(matched)
			break
		}
	}
	if text == "" {
		span.SetStatus(codes.Error, scrapeerr.ErrNoResult.Error())
		return Answer{}, scrapeerr.ErrNoResult
	}

	answer := Answer{Text: text, HTML: panelHtml}
	answer.Title = htmlutil.CleanText(doc.Find("div.xpdopen h3").First().Text())

	sources := htmlutil.GetAnchors(doc.Find("div.xpdopen a.sXtWJb, div.yuRUbf a"))
	if len(sources) > 0 {
		answer.Source = sources[0]
	}

	return answer, nil
}

// suggestqueries answers with a positional json array:
// ["prefix", ["suggestion", ...]]
func (c *Client) Autocomplete(ctx context.Context, prefix string) ([]string, error) {
	ctx, span := tracer.Start(ctx, "Autocomplete")
	defer span.End()
	span.SetAttributes(attribute.String("prefix", prefix))

	res, err := c.SuggestHttp.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"client": "firefox",
			"q":      prefix,
		}).
		Get("/complete/search")
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch suggestions")
		return nil, err
	}

	var payload []json.RawMessage
	err = json.Unmarshal(res.Body(), &payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse suggestion json")
		return nil, fmt.Errorf("suggestion payload: %w", scrapeerr.ErrMarkupChanged)
	}
	if len(payload) < 2 {
		span.SetStatus(codes.Error, "suggestion payload too short")
		return nil, scrapeerr.MarkupChanged("suggestion array")
	}

	var suggestions []string
	err = json.Unmarshal(payload[1], &suggestions)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse suggestion list")
		return nil, scrapeerr.MarkupChanged("suggestion list")
	}

	out := suggestions[:0]
	for _, s := range suggestions {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

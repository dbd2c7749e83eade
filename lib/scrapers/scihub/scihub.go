// Package scihub resolves DOIs and article urls to direct PDF links by
// scraping Sci-Hub mirror pages.
package scihub

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http/cookiejar"
	"strings"
	"studykit-backend/lib/scrapeerr"
	"studykit-backend/lib/telemetry"
	"studykit-backend/lib/webcache"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	browser "github.com/EDDYCJY/fake-useragent"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/scihub")

var defaultMirrors = []string{
	"https://sci-hub.se",
	"https://sci-hub.st",
	"https://sci-hub.ru",
}

const cacheNamespace = "scihub"
const cacheTTL = time.Hour * 24 * 7

type Client struct {
	Http    *resty.Client
	mirrors []string
	cache   *webcache.Cache
}

type ClientOptions struct {
	// mirror base urls tried in order, defaults to the usual three
	Mirrors []string
	// optional cache for resolved pdf links
	Cache *webcache.Cache
	// defaults to a random current-browser user agent
	UserAgent string
}

func NewClient(opts ClientOptions) (*Client, error) {
	mirrors := opts.Mirrors
	if len(mirrors) == 0 {
		mirrors = defaultMirrors
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = browser.Chrome()
	}

	client := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(
		client.GetClient().Transport,
		cloudflarebp.Options{
			AddMissingHeaders: true,
			Headers: map[string]string{
				"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
				"Accept-Language": "en-US,en;q=0.5",
				"User-Agent":      userAgent,
			},
		},
	)
	client.SetHeader("user-agent", userAgent)
	client.SetTimeout(time.Second * 30)
	telemetry.InstrumentResty(client, "scrapers/scihub/http")

	return &Client{
		Http:    client,
		mirrors: mirrors,
		cache:   opts.Cache,
	}, nil
}

type Paper struct {
	// the doi or url the lookup started from
	Ref string
	// direct pdf url
	PdfUrl string
	// which mirror answered
	Mirror string
}

// resolves a doi or article url to a direct pdf link, trying each
// mirror in order. resolved links are cached for a week.
func (c *Client) Locate(ctx context.Context, ref string) (Paper, error) {
	ctx, span := tracer.Start(ctx, "Locate")
	defer span.End()
	span.SetAttributes(attribute.String("ref", ref))

	if c.cache != nil {
		cached, err := c.cache.Get(ctx, cacheNamespace, "https://doi.org/"+ref)
		if err == nil {
			span.AddEvent("cache hit")
			return Paper{Ref: ref, PdfUrl: string(cached)}, nil
		}
	}

	var errList []error
	for _, mirror := range c.mirrors {
		paper, err := c.locateOnMirror(ctx, mirror, ref)
		if err != nil {
			errList = append(errList, fmt.Errorf("%s: %w", mirror, err))
			continue
		}

		if c.cache != nil {
			err = c.cache.Set(
				ctx, cacheNamespace,
				"https://doi.org/"+ref,
				[]byte(paper.PdfUrl),
				cacheTTL,
			)
			if err != nil {
				span.RecordError(err)
			}
		}
		return paper, nil
	}

	err := errors.Join(errList...)
	span.RecordError(err)
	span.SetStatus(codes.Error, "all mirrors failed")
	return Paper{}, err
}

func (c *Client) locateOnMirror(ctx context.Context, mirror, ref string) (Paper, error) {
	ctx, span := tracer.Start(ctx, "locateOnMirror")
	defer span.End()
	span.SetAttributes(attribute.String("mirror", mirror))

	res, err := c.Http.R().
		SetContext(ctx).
		Get(fmt.Sprintf("%s/%s", mirror, ref))
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch article page")
		return Paper{}, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.SetStatus(codes.Error, "failed to parse html")
		return Paper{}, err
	}

	src := doc.Find("iframe#pdf").AttrOr("src", "")
	if src == "" {
		src = doc.Find("embed[type='application/pdf']").AttrOr("src", "")
	}
	if src == "" {
		span.SetStatus(codes.Error, "no pdf frame on page")
		return Paper{}, scrapeerr.MarkupChanged("pdf iframe/embed")
	}

	// strip the viewer fragment, absolutize scheme-relative and
	// mirror-relative links
	src, _, _ = strings.Cut(src, "#")
	if strings.HasPrefix(src, "//") {
		src = "https:" + src
	} else if strings.HasPrefix(src, "/") {
		src = mirror + src
	}

	span.SetAttributes(attribute.String("pdf_url", src))
	return Paper{
		Ref:    ref,
		PdfUrl: src,
		Mirror: mirror,
	}, nil
}

func (c *Client) Fetch(ctx context.Context, paper Paper) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "Fetch")
	defer span.End()
	span.SetAttributes(attribute.String("pdf_url", paper.PdfUrl))

	res, err := c.Http.R().
		SetContext(ctx).
		Get(paper.PdfUrl)
	if err != nil {
		span.SetStatus(codes.Error, "failed to download pdf")
		return nil, err
	}

	body := res.Body()
	if !bytes.HasPrefix(body, []byte("%PDF")) {
		span.SetStatus(codes.Error, "response is not a pdf")
		return nil, scrapeerr.MarkupChanged("pdf magic bytes")
	}
	return body, nil
}

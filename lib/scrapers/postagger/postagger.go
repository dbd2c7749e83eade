// Package postagger calls a parts-of-speech tagging web service that
// answers with "word_TAG" pairs separated by whitespace.
package postagger

import (
	"context"
	"strings"
	"studykit-backend/lib/scrapeerr"
	"studykit-backend/lib/telemetry"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/postagger")

type Client struct {
	Http *resty.Client
}

type ClientOptions struct {
	// defaults to https://parts-of-speech.info
	BaseUrl string
}

func NewClient(opts ClientOptions) *Client {
	if opts.BaseUrl == "" {
		opts.BaseUrl = "https://parts-of-speech.info"
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	client.SetTimeout(time.Second * 30)
	telemetry.InstrumentResty(client, "scrapers/postagger/http")

	return &Client{Http: client}
}

type TaggedWord struct {
	Word string
	// Penn Treebank tag, passed through verbatim
	Tag string
}

func (c *Client) Tag(ctx context.Context, text string) ([]TaggedWord, error) {
	ctx, span := tracer.Start(ctx, "Tag")
	defer span.End()

	res, err := c.Http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"text": text,
		}).
		Post("/tag")
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch tags")
		return nil, err
	}

	tagged := strings.TrimSpace(res.String())
	if tagged == "" {
		span.SetStatus(codes.Error, scrapeerr.ErrNoResult.Error())
		return nil, scrapeerr.ErrNoResult
	}

	var words []TaggedWord
	for _, pair := range strings.Fields(tagged) {
		idx := strings.LastIndex(pair, "_")
		if idx <= 0 {
			span.SetStatus(codes.Error, "tag pair without separator")
			return nil, scrapeerr.MarkupChanged("word_TAG pair")
		}
		words = append(words, TaggedWord{
			Word: pair[:idx],
			Tag:  pair[idx+1:],
		})
	}

	span.SetAttributes(attribute.Int("word_count", len(words)))
	return words, nil
}

// Package translate calls the unofficial translate_a/single endpoint
// used by the Google Translate web widget (client=gtx).
package translate

import (
	"context"
	"encoding/json"
	"strings"
	"studykit-backend/lib/scrapeerr"
	"studykit-backend/lib/telemetry"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/google/translate")

type Client struct {
	Http *resty.Client
}

type ClientOptions struct {
	// defaults to https://translate.googleapis.com
	BaseUrl string
}

func NewClient(opts ClientOptions) *Client {
	if opts.BaseUrl == "" {
		opts.BaseUrl = "https://translate.googleapis.com"
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	client.SetTimeout(time.Second * 30)
	telemetry.InstrumentResty(client, "scrapers/google/translate/http")

	return &Client{Http: client}
}

type Request struct {
	Text string
	// ISO 639-1 code, defaults to "auto"
	Source string
	// ISO 639-1 code
	Target string
}

type Result struct {
	Text string
	// the language the endpoint decided the input was in
	DetectedSource string
}

// the endpoint answers with positional nested arrays:
// [[["<translated chunk>", "<source chunk>", ...], ...], null, "<detected lang>", ...]
func (c *Client) Translate(ctx context.Context, req Request) (Result, error) {
	ctx, span := tracer.Start(ctx, "Translate")
	defer span.End()

	source := req.Source
	if source == "" {
		source = "auto"
	}
	span.SetAttributes(
		attribute.String("source", source),
		attribute.String("target", req.Target),
	)

	res, err := c.Http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"client": "gtx",
			"sl":     source,
			"tl":     req.Target,
			"dt":     "t",
			"q":      req.Text,
		}).
		Get("/translate_a/single")
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch translation")
		return Result{}, err
	}

	var payload []json.RawMessage
	err = json.Unmarshal(res.Body(), &payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse translation json")
		return Result{}, scrapeerr.MarkupChanged("translation payload")
	}
	if len(payload) < 3 {
		span.SetStatus(codes.Error, "translation payload too short")
		return Result{}, scrapeerr.MarkupChanged("translation array")
	}

	var chunks [][]json.RawMessage
	err = json.Unmarshal(payload[0], &chunks)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse translation chunks")
		return Result{}, scrapeerr.MarkupChanged("translation chunks")
	}

	var text strings.Builder
	for _, chunk := range chunks {
		if len(chunk) == 0 {
			continue
		}
		var segment string
		err = json.Unmarshal(chunk[0], &segment)
		if err != nil {
			continue
		}
		text.WriteString(segment)
	}
	if text.Len() == 0 {
		span.SetStatus(codes.Error, scrapeerr.ErrNoResult.Error())
		return Result{}, scrapeerr.ErrNoResult
	}

	var detected string
	// detected language may be null when the source was given explicitly
	json.Unmarshal(payload[2], &detected)
	if detected == "" {
		detected = source
	}

	return Result{
		Text:           text.String(),
		DetectedSource: detected,
	}, nil
}

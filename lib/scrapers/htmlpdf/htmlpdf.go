// Package htmlpdf renders HTML or a url to PDF through a hosted
// rendering REST service.
package htmlpdf

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"studykit-backend/lib/scrapeerr"
	"studykit-backend/lib/telemetry"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/htmlpdf")

type Client struct {
	Http   *resty.Client
	apiKey string
}

type ClientOptions struct {
	// defaults to https://api.html2pdf.app
	BaseUrl string
	ApiKey  string
}

func NewClient(opts ClientOptions) *Client {
	if opts.BaseUrl == "" {
		opts.BaseUrl = "https://api.html2pdf.app"
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	client.SetTimeout(time.Second * 60)
	telemetry.InstrumentResty(client, "scrapers/htmlpdf/http")

	return &Client{Http: client, apiKey: opts.ApiKey}
}

type Request struct {
	// exactly one of HTML/Url must be set
	HTML string
	Url  string

	Landscape bool
	// paper size, defaults to A4
	Format string
}

type renderError struct {
	Message string `json:"message"`
}

func (c *Client) Render(ctx context.Context, req Request) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "Render")
	defer span.End()

	if (req.HTML == "") == (req.Url == "") {
		return nil, fmt.Errorf("exactly one of HTML or Url must be set")
	}
	format := req.Format
	if format == "" {
		format = "A4"
	}
	span.SetAttributes(
		attribute.Bool("landscape", req.Landscape),
		attribute.String("format", format),
	)

	res, err := c.Http.R().
		SetContext(ctx).
		SetHeader("content-type", "application/json").
		SetBody(map[string]any{
			"html":      req.HTML,
			"url":       req.Url,
			"landscape": req.Landscape,
			"format":    format,
			"apiKey":    c.apiKey,
		}).
		Post("/v1/generate")
	if err != nil {
		span.SetStatus(codes.Error, "failed to request render")
		return nil, err
	}

	body := res.Body()
	if bytes.HasPrefix(body, []byte("%PDF")) {
		return body, nil
	}

	// anything other than a pdf is an error payload
	var remote renderError
	err = json.Unmarshal(body, &remote)
	if err != nil || remote.Message == "" {
		span.SetStatus(codes.Error, "response is neither pdf nor error json")
		return nil, scrapeerr.MarkupChanged("pdf response")
	}

	rerr := scrapeerr.RemoteError{Service: "html2pdf", Message: remote.Message}
	span.SetStatus(codes.Error, rerr.Error())
	return nil, rerr
}

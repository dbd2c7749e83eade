// Package wordtune calls the Wordtune rewrite REST API the browser
// extension talks to.
package wordtune

import (
	"context"
	"encoding/json"
	"studykit-backend/lib/scrapeerr"
	"studykit-backend/lib/telemetry"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/wordtune")

type Client struct {
	Http *resty.Client
}

type ClientOptions struct {
	// defaults to https://api.wordtune.com
	BaseUrl string
}

func NewClient(opts ClientOptions) *Client {
	if opts.BaseUrl == "" {
		opts.BaseUrl = "https://api.wordtune.com"
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	client.SetHeader("x-wordtune-origin", "https://www.wordtune.com")
	client.SetTimeout(time.Second * 30)
	telemetry.InstrumentResty(client, "scrapers/wordtune/http")

	return &Client{Http: client}
}

type rewriteRequest struct {
	Action    string           `json:"action"`
	Text      string           `json:"text"`
	Start     int              `json:"start"`
	End       int              `json:"end"`
	Selection rewriteSelection `json:"selection"`
}

type rewriteSelection struct {
	WholeText string `json:"wholeText"`
	Start     int    `json:"start"`
	End       int    `json:"end"`
}

type rewriteResponse struct {
	Suggestions []string `json:"suggestions"`
	Detail      string   `json:"detail"`
}

// asks for rewrites of the whole sentence, returning the suggestion
// strings in the order the service ranked them.
func (c *Client) Rewrite(ctx context.Context, sentence string) ([]string, error) {
	ctx, span := tracer.Start(ctx, "Rewrite")
	defer span.End()

	res, err := c.Http.R().
		SetContext(ctx).
		SetHeader("content-type", "application/json").
		SetBody(rewriteRequest{
			Action: "REWRITE",
			Text:   sentence,
			Start:  0,
			End:    len(sentence),
			Selection: rewriteSelection{
				WholeText: sentence,
				Start:     0,
				End:       len(sentence),
			},
		}).
		Post("/rewrite-limited")
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch rewrites")
		return nil, err
	}

	var payload rewriteResponse
	err = json.Unmarshal(res.Body(), &payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse rewrite json")
		return nil, scrapeerr.MarkupChanged("rewrite payload")
	}
	if payload.Detail != "" {
		remote := scrapeerr.RemoteError{Service: "wordtune", Message: payload.Detail}
		span.SetStatus(codes.Error, remote.Error())
		return nil, remote
	}
	if len(payload.Suggestions) == 0 {
		span.SetStatus(codes.Error, scrapeerr.ErrNoResult.Error())
		return nil, scrapeerr.ErrNoResult
	}

	span.SetAttributes(attribute.Int("suggestion_count", len(payload.Suggestions)))
	return payload.Suggestions, nil
}

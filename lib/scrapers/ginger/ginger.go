// Package ginger calls the Ginger grammar checker through its public
// JSONP endpoint, the one the browser extension ships with.
package ginger

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"studykit-backend/lib/scrapeerr"
	"studykit-backend/lib/telemetry"
	"time"

	"github.com/go-resty/resty/v2"
	random "github.com/mazen160/go-random"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/ginger")

// the key the extension embeds, it is not tied to an account
const apiKey = "6ae0c3a0-afdc-4532-a810-82ded0054236"

type Client struct {
	Http *resty.Client
}

type ClientOptions struct {
	// defaults to https://services.gingersoftware.com
	BaseUrl string
}

func NewClient(opts ClientOptions) *Client {
	if opts.BaseUrl == "" {
		opts.BaseUrl = "https://services.gingersoftware.com"
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	client.SetTimeout(time.Second * 30)
	telemetry.InstrumentResty(client, "scrapers/ginger/http")

	return &Client{Http: client}
}

type Correction struct {
	// byte offsets into the original text, inclusive bounds
	From int
	To   int
	// what the span reads as in the original
	Original string
	// ordered best-first
	Suggestions []string
}

type CheckResult struct {
	// the input with the top suggestion spliced in at every correction
	Corrected   string
	Corrections []Correction
}

type jsonpPayload struct {
	LightGingerTheTextResult []struct {
		From        int `json:"From"`
		To          int `json:"To"`
		Suggestions []struct {
			Text string `json:"Text"`
		} `json:"Suggestions"`
	} `json:"LightGingerTheTextResult"`
}

// strips `callback(...)` down to the json argument.
func stripJsonp(body, callback string) (string, error) {
	trimmed := strings.TrimSpace(body)
	if !strings.HasPrefix(trimmed, callback+"(") || !strings.HasSuffix(trimmed, ")") {
		return "", scrapeerr.MarkupChanged("jsonp callback wrapper")
	}
	return trimmed[len(callback)+1 : len(trimmed)-1], nil
}

func (c *Client) Check(ctx context.Context, text string) (CheckResult, error) {
	ctx, span := tracer.Start(ctx, "Check")
	defer span.End()

	// jsonp callbacks are conventionally unique per request
	suffix, err := random.String(10)
	if err != nil {
		return CheckResult{}, err
	}
	callback := "jsonp_" + suffix

	res, err := c.Http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"apiKey":        apiKey,
			"clientVersion": "2.0",
			"lang":          "US",
			"callback":      callback,
			"text":          text,
		}).
		Get("/Ginger/correct/jsonp/GingerTheText")
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch corrections")
		return CheckResult{}, err
	}

	raw, err := stripJsonp(res.String(), callback)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "response is not jsonp")
		return CheckResult{}, err
	}

	var payload jsonpPayload
	err = json.Unmarshal([]byte(raw), &payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse jsonp body")
		return CheckResult{}, scrapeerr.MarkupChanged("correction payload")
	}

	result := CheckResult{Corrected: text}
	for _, entry := range payload.LightGingerTheTextResult {
		if entry.From < 0 || entry.To >= len(text) || entry.To < entry.From {
			continue
		}
		correction := Correction{
			From:     entry.From,
			To:       entry.To,
			Original: text[entry.From : entry.To+1],
		}
		for _, s := range entry.Suggestions {
			correction.Suggestions = append(correction.Suggestions, s.Text)
		}
		result.Corrections = append(result.Corrections, correction)
	}

	result.Corrected = splice(text, result.Corrections)

	span.SetAttributes(attribute.Int("correction_count", len(result.Corrections)))
	return result, nil
}

// replaces every corrected span with its top suggestion, right to left
// so earlier offsets stay valid.
func splice(text string, corrections []Correction) string {
	ordered := make([]Correction, len(corrections))
	copy(ordered, corrections)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].From > ordered[j].From
	})

	out := text
	for _, c := range ordered {
		if len(c.Suggestions) == 0 {
			continue
		}
		out = out[:c.From] + c.Suggestions[0] + out[c.To+1:]
	}
	return out
}

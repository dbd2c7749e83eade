// Package cram submits essays to the Cram grammar scoring service and
// polls for the finished report.
package cram

import (
	"context"
	"encoding/json"
	"fmt"
	"studykit-backend/lib/pollutil"
	"studykit-backend/lib/scrapeerr"
	"studykit-backend/lib/telemetry"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/cram")

type Client struct {
	Http *resty.Client

	poll pollutil.Options
}

type ClientOptions struct {
	// defaults to https://www.cram.com
	BaseUrl string
	// polling knobs, zero values use the pollutil defaults
	Poll pollutil.Options
}

func NewClient(opts ClientOptions) *Client {
	if opts.BaseUrl == "" {
		opts.BaseUrl = "https://www.cram.com"
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	client.SetTimeout(time.Second * 30)
	telemetry.InstrumentResty(client, "scrapers/cram/http")

	return &Client{Http: client, poll: opts.Poll}
}

type Issue struct {
	Type        string
	Excerpt     string
	Suggestions []string
}

type Report struct {
	Score  float64
	Issues []Issue
}

type submitResponse struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

type scoreResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Data    struct {
		Score  float64 `json:"score"`
		Issues []struct {
			Type        string   `json:"type"`
			Excerpt     string   `json:"excerpt"`
			Suggestions []string `json:"suggestions"`
		} `json:"issues"`
	} `json:"data"`
}

// submits the essay then polls the score endpoint until the report is
// ready. a remote error field at any point is terminal.
func (c *Client) Score(ctx context.Context, essay string) (Report, error) {
	ctx, span := tracer.Start(ctx, "Score")
	defer span.End()

	res, err := c.Http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"essay": essay,
		}).
		Post("/api/v2/grammar")
	if err != nil {
		span.SetStatus(codes.Error, "failed to submit essay")
		return Report{}, err
	}

	var submitted submitResponse
	err = json.Unmarshal(res.Body(), &submitted)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse submit json")
		return Report{}, scrapeerr.MarkupChanged("submit payload")
	}
	if submitted.Error != "" {
		remote := scrapeerr.RemoteError{Service: "cram", Message: submitted.Error}
		span.SetStatus(codes.Error, remote.Error())
		return Report{}, remote
	}
	if submitted.ID == "" {
		span.SetStatus(codes.Error, "submit response missing job id")
		return Report{}, scrapeerr.MarkupChanged("job id")
	}
	span.SetAttributes(attribute.String("job_id", submitted.ID))

	report, err := pollutil.Poll(ctx, c.poll, func(ctx context.Context) (Report, bool, error) {
		res, err := c.Http.R().
			SetContext(ctx).
			Get(fmt.Sprintf("/api/v2/grammar/%s", submitted.ID))
		if err != nil {
			return Report{}, false, err
		}

		var score scoreResponse
		err = json.Unmarshal(res.Body(), &score)
		if err != nil {
			return Report{}, false, pollutil.Permanent(scrapeerr.MarkupChanged("score payload"))
		}
		if score.Error != "" {
			return Report{}, false, pollutil.Permanent(scrapeerr.RemoteError{
				Service: "cram",
				Message: score.Error,
			})
		}
		if !score.Success {
			return Report{}, false, nil
		}

		report := Report{Score: score.Data.Score}
		for _, issue := range score.Data.Issues {
			report.Issues = append(report.Issues, Issue{
				Type:        issue.Type,
				Excerpt:     issue.Excerpt,
				Suggestions: issue.Suggestions,
			})
		}
		return report, true, nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "polling for the score failed")
		return Report{}, err
	}

	return report, nil
}

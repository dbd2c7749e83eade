// Package convertio drives file conversions through the Convertio REST
// API: start a job, poll its status, download the output.
package convertio

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"studykit-backend/lib/pollutil"
	"studykit-backend/lib/scrapeerr"
	"studykit-backend/lib/telemetry"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/convertio")

type Client struct {
	Http   *resty.Client
	apiKey string
	poll   pollutil.Options
}

type ClientOptions struct {
	// defaults to https://api.convertio.co
	BaseUrl string
	ApiKey  string
	// polling knobs, zero values use the pollutil defaults
	Poll pollutil.Options
}

func NewClient(opts ClientOptions) *Client {
	if opts.BaseUrl == "" {
		opts.BaseUrl = "https://api.convertio.co"
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	client.SetTimeout(time.Second * 30)
	telemetry.InstrumentResty(client, "scrapers/convertio/http")

	return &Client{Http: client, apiKey: opts.ApiKey, poll: opts.Poll}
}

type Input struct {
	File         []byte
	Filename     string
	OutputFormat string
}

type Job struct {
	ID string

	client *Client
}

type Result struct {
	// where convertio parked the converted file
	OutputUrl string
	Size      int64
	File      []byte
}

type apiEnvelope struct {
	Status string          `json:"status"`
	Error  string          `json:"error"`
	Data   json.RawMessage `json:"data"`
}

type startData struct {
	ID string `json:"id"`
}

type statusData struct {
	Step        string `json:"step"`
	StepPercent int    `json:"step_percent"`
	Output      struct {
		Url  string `json:"url"`
		Size string `json:"size"`
	} `json:"output"`
}

func decodeEnvelope(body []byte, out any) error {
	var envelope apiEnvelope
	err := json.Unmarshal(body, &envelope)
	if err != nil {
		return scrapeerr.MarkupChanged("api envelope")
	}
	if envelope.Status == "error" {
		return scrapeerr.RemoteError{Service: "convertio", Message: envelope.Error}
	}
	err = json.Unmarshal(envelope.Data, out)
	if err != nil {
		return scrapeerr.MarkupChanged("api data")
	}
	return nil
}

func (c *Client) Start(ctx context.Context, input Input) (Job, error) {
	ctx, span := tracer.Start(ctx, "Start")
	defer span.End()
	span.SetAttributes(
		attribute.String("filename", input.Filename),
		attribute.String("output_format", input.OutputFormat),
	)

	res, err := c.Http.R().
		SetContext(ctx).
		SetHeader("content-type", "application/json").
		SetBody(map[string]string{
			"apikey":       c.apiKey,
			"input":        "base64",
			"file":         base64.StdEncoding.EncodeToString(input.File),
			"filename":     input.Filename,
			"outputformat": input.OutputFormat,
		}).
		Post("/convert")
	if err != nil {
		span.SetStatus(codes.Error, "failed to start conversion")
		return Job{}, err
	}

	var data startData
	err = decodeEnvelope(res.Body(), &data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode start response")
		return Job{}, err
	}
	if data.ID == "" {
		span.SetStatus(codes.Error, "start response missing job id")
		return Job{}, scrapeerr.MarkupChanged("job id")
	}

	span.SetAttributes(attribute.String("job_id", data.ID))
	return Job{ID: data.ID, client: c}, nil
}

// polls the status endpoint until the conversion reaches the "finish"
// step, then downloads the output file.
func (j Job) Wait(ctx context.Context) (Result, error) {
	ctx, span := tracer.Start(ctx, "Wait")
	defer span.End()
	span.SetAttributes(attribute.String("job_id", j.ID))

	c := j.client

	result, err := pollutil.Poll(ctx, c.poll, func(ctx context.Context) (Result, bool, error) {
		res, err := c.Http.R().
			SetContext(ctx).
			Get(fmt.Sprintf("/convert/%s/status", j.ID))
		if err != nil {
			return Result{}, false, err
		}

		var data statusData
		err = decodeEnvelope(res.Body(), &data)
		if err != nil {
			return Result{}, false, pollutil.Permanent(err)
		}
		if data.Step != "finish" {
			return Result{}, false, nil
		}

		size, _ := strconv.ParseInt(data.Output.Size, 10, 64)
		return Result{
			OutputUrl: data.Output.Url,
			Size:      size,
		}, true, nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "polling for conversion status failed")
		return Result{}, err
	}

	res, err := c.Http.R().
		SetContext(ctx).
		Get(result.OutputUrl)
	if err != nil {
		span.SetStatus(codes.Error, "failed to download output")
		return Result{}, err
	}
	result.File = res.Body()

	return result, nil
}

func (c *Client) Convert(ctx context.Context, input Input) (Result, error) {
	ctx, span := tracer.Start(ctx, "Convert")
	defer span.End()

	job, err := c.Start(ctx, input)
	if err != nil {
		return Result{}, err
	}
	return job.Wait(ctx)
}

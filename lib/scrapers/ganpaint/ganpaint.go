// Package ganpaint sends images through a hosted image-to-image GAN
// inference service (gradio-style predict endpoint).
package ganpaint

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"studykit-backend/lib/scrapeerr"
	"studykit-backend/lib/telemetry"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/ganpaint")

type Client struct {
	Http *resty.Client
}

type ClientOptions struct {
	// base url of the inference service, required
	BaseUrl string
}

func NewClient(opts ClientOptions) *Client {
	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	// model inference can take a while on cold starts
	client.SetTimeout(time.Minute * 2)
	telemetry.InstrumentResty(client, "scrapers/ganpaint/http")

	return &Client{Http: client}
}

type Request struct {
	// png or jpeg bytes
	Image []byte
	// which model/style to run, service-defined
	Model string
}

type predictRequest struct {
	Data []string `json:"data"`
}

type predictResponse struct {
	Data  []string `json:"data"`
	Error string   `json:"error"`
}

func (c *Client) Stylize(ctx context.Context, req Request) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "Stylize")
	defer span.End()
	span.SetAttributes(
		attribute.String("model", req.Model),
		attribute.Int("input_bytes", len(req.Image)),
	)

	encoded := fmt.Sprintf(
		"data:image/png;base64,%s",
		base64.StdEncoding.EncodeToString(req.Image),
	)

	res, err := c.Http.R().
		SetContext(ctx).
		SetHeader("content-type", "application/json").
		SetBody(predictRequest{
			Data: []string{encoded, req.Model},
		}).
		Post("/run/predict")
	if err != nil {
		span.SetStatus(codes.Error, "failed to request inference")
		return nil, err
	}

	var payload predictResponse
	err = json.Unmarshal(res.Body(), &payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse inference json")
		return nil, scrapeerr.MarkupChanged("inference payload")
	}
	if payload.Error != "" {
		remote := scrapeerr.RemoteError{Service: "ganpaint", Message: payload.Error}
		span.SetStatus(codes.Error, remote.Error())
		return nil, remote
	}
	if len(payload.Data) == 0 {
		span.SetStatus(codes.Error, scrapeerr.ErrNoResult.Error())
		return nil, scrapeerr.ErrNoResult
	}

	// the result comes back as a data uri
	_, b64, found := strings.Cut(payload.Data[0], ",")
	if !found {
		span.SetStatus(codes.Error, "result is not a data uri")
		return nil, scrapeerr.MarkupChanged("result data uri")
	}
	image, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode result image")
		return nil, scrapeerr.MarkupChanged("result base64")
	}

	span.SetAttributes(attribute.Int("output_bytes", len(image)))
	return image, nil
}

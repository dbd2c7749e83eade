// Package cdnjs searches the cdnjs library index through the Algolia
// application backing the cdnjs.com search box.
package cdnjs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"studykit-backend/lib/scrapeerr"
	"studykit-backend/lib/telemetry"
	"time"

	"github.com/antzucaro/matchr"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/cdnjs")

// the search-only credentials cdnjs.com ships to every visitor
const algoliaAppID = "2QWLVLXZB6"
const algoliaAPIKey = "2663c73014d2e4d6d1778cc8ad9fd010"

type Client struct {
	Http *resty.Client
}

type ClientOptions struct {
	// defaults to the cdnjs Algolia DSN host
	BaseUrl string
}

func NewClient(opts ClientOptions) *Client {
	if opts.BaseUrl == "" {
		opts.BaseUrl = fmt.Sprintf("https://%s-dsn.algolia.net", strings.ToLower(algoliaAppID))
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	client.SetHeader("x-algolia-application-id", algoliaAppID)
	client.SetHeader("x-algolia-api-key", algoliaAPIKey)
	client.SetTimeout(time.Second * 30)
	telemetry.InstrumentResty(client, "scrapers/cdnjs/http")

	return &Client{Http: client}
}

type Library struct {
	Name        string
	Description string
	Version     string
	// direct url of the default file at the latest version
	LatestFileUrl string
}

type queryResponse struct {
	Hits []struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Version     string `json:"version"`
		Filename    string `json:"filename"`
	} `json:"hits"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func (c *Client) Search(ctx context.Context, name string) ([]Library, error) {
	ctx, span := tracer.Start(ctx, "Search")
	defer span.End()
	span.SetAttributes(attribute.String("query", name))

	params := url.Values{}
	params.Set("query", name)
	params.Set("hitsPerPage", "10")

	res, err := c.Http.R().
		SetContext(ctx).
		SetHeader("content-type", "application/json").
		SetBody(map[string]string{
			"params": params.Encode(),
		}).
		Post("/1/indexes/libraries/query")
	if err != nil {
		span.SetStatus(codes.Error, "failed to query algolia")
		return nil, err
	}

	var payload queryResponse
	err = json.Unmarshal(res.Body(), &payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse algolia json")
		return nil, scrapeerr.MarkupChanged("algolia payload")
	}
	if payload.Message != "" {
		remote := scrapeerr.RemoteError{
			Service: "cdnjs",
			Code:    strconv.Itoa(payload.Status),
			Message: payload.Message,
		}
		span.SetStatus(codes.Error, remote.Error())
		return nil, remote
	}
	if len(payload.Hits) == 0 {
		span.SetStatus(codes.Error, scrapeerr.ErrNoResult.Error())
		return nil, scrapeerr.ErrNoResult
	}

	var libraries []Library
	for _, hit := range payload.Hits {
		lib := Library{
			Name:        hit.Name,
			Description: hit.Description,
			Version:     hit.Version,
		}
		if hit.Filename != "" && hit.Version != "" {
			lib.LatestFileUrl = fmt.Sprintf(
				"https://cdnjs.cloudflare.com/ajax/libs/%s/%s/%s",
				hit.Name, hit.Version, hit.Filename,
			)
		}
		libraries = append(libraries, lib)
	}

	// algolia ranks by popularity, resort so near-exact name matches
	// surface first
	sort.SliceStable(libraries, func(i, j int) bool {
		return matchr.JaroWinkler(name, libraries[i].Name, true) >
			matchr.JaroWinkler(name, libraries[j].Name, true)
	})

	return libraries, nil
}

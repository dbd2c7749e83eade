// Package notion queries Notion's internal /api/v3/search endpoint
// with a logged-in token_v2 cookie.
package notion

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"studykit-backend/lib/scrapeerr"
	"studykit-backend/lib/telemetry"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/notion")

type Client struct {
	Http *resty.Client
}

type ClientOptions struct {
	// defaults to https://www.notion.so
	BaseUrl string
	// the token_v2 cookie of a logged-in session
	Token string
}

func NewClient(opts ClientOptions) *Client {
	if opts.BaseUrl == "" {
		opts.BaseUrl = "https://www.notion.so"
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	client.SetCookie(&http.Cookie{
		Name:  "token_v2",
		Value: opts.Token,
	})
	client.SetTimeout(time.Second * 30)
	telemetry.InstrumentResty(client, "scrapers/notion/http")

	return &Client{Http: client}
}

type Request struct {
	SpaceID string
	Query   string
	// defaults to 20
	Limit int
}

type Match struct {
	BlockID string
	// the matched text with <gzkNfoUU>...</gzkNfoUU> highlight markers
	// already stripped
	Snippet string
}

type Results struct {
	Matches []Match
	// total matches in the workspace, may exceed len(Matches)
	Total int
}

type searchRequest struct {
	Type     string       `json:"type"`
	Query    string       `json:"query"`
	SpaceID  string       `json:"spaceId"`
	Limit    int          `json:"limit"`
	SearchID string       `json:"searchSessionId"`
	Sort     string       `json:"sort"`
	Source   string       `json:"source"`
	Filters  searchFilter `json:"filters"`
}

type searchFilter struct {
	IsDeletedOnly          bool     `json:"isDeletedOnly"`
	ExcludeTemplates       bool     `json:"excludeTemplates"`
	IsNavigableOnly        bool     `json:"isNavigableOnly"`
	RequireEditPermissions bool     `json:"requireEditPermissions"`
	Ancestors              []string `json:"ancestors"`
	CreatedBy              []string `json:"createdBy"`
	EditedBy               []string `json:"editedBy"`
	LastEditedTime         struct{} `json:"lastEditedTime"`
	CreatedTime            struct{} `json:"createdTime"`
}

type searchResponse struct {
	Results []struct {
		ID         string `json:"id"`
		Highlight struct {
			Text string `json:"text"`
		} `json:"highlight"`
	} `json:"results"`
	Total int `json:"total"`

	ErrorID string `json:"errorId"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

// notion wraps matched substrings in these markers
const highlightOpen = "<gzkNfoUU>"
const highlightClose = "</gzkNfoUU>"

func stripHighlight(s string) string {
	s = strings.ReplaceAll(s, highlightOpen, "")
	return strings.ReplaceAll(s, highlightClose, "")
}

func (c *Client) Search(ctx context.Context, req Request) (Results, error) {
	ctx, span := tracer.Start(ctx, "Search")
	defer span.End()
	span.SetAttributes(
		attribute.String("space_id", req.SpaceID),
		attribute.String("query", req.Query),
	)

	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}

	res, err := c.Http.R().
		SetContext(ctx).
		SetHeader("content-type", "application/json").
		SetBody(searchRequest{
			Type:     "BlocksInSpace",
			Query:    req.Query,
			SpaceID:  req.SpaceID,
			Limit:    limit,
			SearchID: uuid.NewString(),
			Sort:     "Relevance",
			Source:   "quick_find",
		}).
		Post("/api/v3/search")
	if err != nil {
		span.SetStatus(codes.Error, "failed to query search")
		return Results{}, err
	}

	var payload searchResponse
	err = json.Unmarshal(res.Body(), &payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse search json")
		return Results{}, scrapeerr.MarkupChanged("search payload")
	}
	if payload.ErrorID != "" || payload.Name != "" {
		remote := scrapeerr.RemoteError{
			Service: "notion",
			Code:    payload.Name,
			Message: payload.Message,
		}
		span.SetStatus(codes.Error, remote.Error())
		return Results{}, remote
	}

	results := Results{Total: payload.Total}
	for _, r := range payload.Results {
		results.Matches = append(results.Matches, Match{
			BlockID: r.ID,
			Snippet: stripHighlight(r.Highlight.Text),
		})
	}

	span.SetAttributes(attribute.Int("match_count", len(results.Matches)))
	return results, nil
}

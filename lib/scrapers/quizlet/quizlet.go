// Package quizlet pulls flashcard sets out of Quizlet's internal web
// API (the same one the study page fetches from).
package quizlet

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"studykit-backend/lib/scrapeerr"
	"studykit-backend/lib/telemetry"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/quizlet")

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

const perPage = 200

type Client struct {
	Http *resty.Client
}

type ClientOptions struct {
	// defaults to https://quizlet.com
	BaseUrl string
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.BaseUrl == "" {
		opts.BaseUrl = "https://quizlet.com"
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.SetHeader("user-agent", browserUserAgent)
	client.SetTimeout(time.Second * 30)
	telemetry.InstrumentResty(client, "scrapers/quizlet/http")

	return &Client{Http: client}, nil
}

type Card struct {
	Term       string
	Definition string
}

type Set struct {
	ID    int64
	Title string
	Cards []Card
}

// pulls the set id out of a quizlet.com set url such as
// https://quizlet.com/123456789/some-title-flash-cards/
func ExtractSetID(link string) (int64, error) {
	parsed, err := url.Parse(link)
	if err != nil {
		return 0, err
	}
	for _, segment := range strings.Split(parsed.Path, "/") {
		if segment == "" {
			continue
		}
		id, err := strconv.ParseInt(segment, 10, 64)
		if err == nil {
			return id, nil
		}
	}
	return 0, fmt.Errorf("no set id found in %q", link)
}

type itemDocumentsResponse struct {
	Responses []struct {
		Models struct {
			StudiableItem []struct {
				CardSides []struct {
					Label string `json:"label"`
					Media []struct {
						Type      int    `json:"type"`
						PlainText string `json:"plainText"`
					} `json:"media"`
				} `json:"cardSides"`
			} `json:"studiableItem"`
		} `json:"models"`
		Paging struct {
			Token string `json:"token"`
		} `json:"paging"`
	} `json:"responses"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type setResponse struct {
	Responses []struct {
		Models struct {
			Set []struct {
				Title string `json:"title"`
			} `json:"set"`
		} `json:"models"`
	} `json:"responses"`
}

func (c *Client) FlashcardSet(ctx context.Context, setID int64) (Set, error) {
	ctx, span := tracer.Start(ctx, "FlashcardSet")
	defer span.End()
	span.SetAttributes(attribute.Int64("set_id", setID))

	set := Set{ID: setID}

	title, err := c.fetchTitle(ctx, setID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch set title")
		return Set{}, err
	}
	set.Title = title

	page := 1
	token := ""
	for {
		cards, nextToken, err := c.fetchItemPage(ctx, setID, page, token)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to fetch item page")
			return Set{}, err
		}
		set.Cards = append(set.Cards, cards...)

		if nextToken == "" || len(cards) < perPage {
			break
		}
		token = nextToken
		page++
	}

	if len(set.Cards) == 0 {
		span.SetStatus(codes.Error, scrapeerr.ErrNoResult.Error())
		return Set{}, scrapeerr.ErrNoResult
	}

	span.SetAttributes(attribute.Int("card_count", len(set.Cards)))
	return set, nil
}

func (c *Client) fetchTitle(ctx context.Context, setID int64) (string, error) {
	res, err := c.Http.R().
		SetContext(ctx).
		Get(fmt.Sprintf("/webapi/3.4/sets/%d", setID))
	if err != nil {
		return "", err
	}

	var payload setResponse
	err = json.Unmarshal(res.Body(), &payload)
	if err != nil {
		return "", scrapeerr.MarkupChanged("set payload")
	}
	if len(payload.Responses) == 0 || len(payload.Responses[0].Models.Set) == 0 {
		return "", scrapeerr.MarkupChanged("set model")
	}
	return payload.Responses[0].Models.Set[0].Title, nil
}

func (c *Client) fetchItemPage(ctx context.Context, setID int64, page int, token string) ([]Card, string, error) {
	req := c.Http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"filters[studiableContainerId]":   strconv.FormatInt(setID, 10),
			"filters[studiableContainerType]": "1",
			"perPage":                         strconv.Itoa(perPage),
			"page":                            strconv.Itoa(page),
		})
	if token != "" {
		req.SetQueryParam("pagingToken", token)
	}

	res, err := req.Get("/webapi/3.4/studiable-item-documents")
	if err != nil {
		return nil, "", err
	}

	var payload itemDocumentsResponse
	err = json.Unmarshal(res.Body(), &payload)
	if err != nil {
		return nil, "", scrapeerr.MarkupChanged("studiable item payload")
	}
	if payload.Error != nil {
		return nil, "", scrapeerr.RemoteError{
			Service: "quizlet",
			Code:    strconv.Itoa(payload.Error.Code),
			Message: payload.Error.Message,
		}
	}
	if len(payload.Responses) == 0 {
		return nil, "", scrapeerr.MarkupChanged("responses array")
	}

	var cards []Card
	for _, item := range payload.Responses[0].Models.StudiableItem {
		var card Card
		for _, side := range item.CardSides {
			text := ""
			for _, media := range side.Media {
				// type 1 is plain text, other types are image/audio
				if media.Type == 1 {
					text = media.PlainText
					break
				}
			}
			switch side.Label {
			case "word":
				card.Term = text
			case "definition":
				card.Definition = text
			}
		}
		if card.Term == "" && card.Definition == "" {
			continue
		}
		cards = append(cards, card)
	}

	return cards, payload.Responses[0].Paging.Token, nil
}

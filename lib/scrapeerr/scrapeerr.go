// Package scrapeerr is the error vocabulary shared by every scraper.
//
// scraping failures come in three flavors: the site had nothing for the
// query, the site's markup/JSON shape drifted out from under our parser,
// or the site reported an error of its own. transport errors pass
// through untouched.
package scrapeerr

import (
	"errors"
	"fmt"
)

var ErrNoResult = errors.New("the service returned no result for this query")

var ErrMarkupChanged = errors.New("expected markup or response shape is missing, the site has probably changed")

// wraps ErrMarkupChanged with the selector or field that came up empty.
func MarkupChanged(what string) error {
	return fmt.Errorf("%s: %w", what, ErrMarkupChanged)
}

// an error reported by the remote service itself.
type RemoteError struct {
	Service string
	Code    string
	Message string
}

func (e RemoteError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Service, e.Message, e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Service, e.Message)
}

package htmlutil

import (
	md "github.com/JohannesKaufmann/html-to-markdown"
)

var mdConverter = md.NewConverter("", true, nil)

// renders an HTML fragment as markdown, mostly for terminal display.
func RenderMarkdown(fragment string) (string, error) {
	return mdConverter.ConvertString(fragment)
}

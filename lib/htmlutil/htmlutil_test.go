package htmlutil

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	cases := []struct {
		input    string
		expected string
	}{
		{"  hello  world  ", "hello world"},
		{"one \n two", "one two"},
		// newlines and tabs are non-printable, they vanish rather
		// than turning into spaces
		{"glued\ntogether", "gluedtogether"},
		{"already clean", "already clean"},
		{"", ""},
	}

	for _, test := range cases {
		require.Equal(t, test.expected, CleanText(test.input))
	}
}

func TestGetAnchors(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`
		<div>
			<a href="https://example.com/one">  First   Link  </a>
			<a href="/relative">Second</a>
			<a>no href</a>
		</div>
	`))
	require.NoError(t, err)

	anchors := GetAnchors(doc.Find("a"))
	require.Len(t, anchors, 3)
	require.Equal(t, Anchor{Name: "First Link", Href: "https://example.com/one"}, anchors[0])
	require.Equal(t, Anchor{Name: "Second", Href: "/relative"}, anchors[1])
	require.Equal(t, Anchor{Name: "no href", Href: ""}, anchors[2])
}

func TestGetText(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<p>some <b>bold</b> text</p>`,
	))
	require.NoError(t, err)

	nodes := doc.Find("p").Nodes
	require.Len(t, nodes, 1)
	require.Equal(t, "some bold text", GetText(nodes[0]))
}

func TestRenderMarkdown(t *testing.T) {
	md, err := RenderMarkdown(`<p>The answer is <strong>42</strong>.</p>`)
	require.NoError(t, err)
	require.Contains(t, md, "**42**")
}

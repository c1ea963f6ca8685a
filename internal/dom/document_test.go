package dom

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

const page = `<html><body>
<div id="main" class="a b">
  <p>one</p>
  <!-- note -->
  <p data-x="1">two <span>three</span></p>
</div>
<a href="/x">link</a>
</body></html>`

func elements(d *Document) []*html.Node {
	var out []*html.Node
	Descendants(d.Root(), func(n *html.Node) { out = append(out, n) })
	return out
}

func tags(nodes []*html.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Data
	}
	return out
}

func TestParseAndDescendants(t *testing.T) {
	d, err := Parse(page)
	require.NoError(t, err)
	assert.Equal(t, html.DocumentNode, d.Root().Type)
	assert.Equal(t, []string{"html", "head", "body", "div", "p", "p", "span", "a"}, tags(elements(d)))
}

func TestDescendantsExcludesSelf(t *testing.T) {
	d, err := Parse(page)
	require.NoError(t, err)

	var div *html.Node
	for _, n := range elements(d) {
		if n.Data == "div" {
			div = n
		}
	}
	require.NotNil(t, div)

	var below []*html.Node
	Descendants(div, func(n *html.Node) { below = append(below, n) })
	assert.Equal(t, []string{"p", "p", "span"}, tags(below))
}

func TestOrderAndSort(t *testing.T) {
	d, err := Parse(page)
	require.NoError(t, err)

	all := elements(d)
	reversed := make([]*html.Node, len(all))
	for i, n := range all {
		reversed[len(all)-1-i] = n
	}
	d.SortNodes(reversed)
	assert.Equal(t, all, reversed)

	first, ok := d.position(all[0])
	require.True(t, ok)
	last, ok := d.position(all[len(all)-1])
	require.True(t, ok)
	assert.Less(t, first, last)

	_, ok = d.position(&html.Node{})
	assert.False(t, ok)
}

func TestTextAndAttr(t *testing.T) {
	d, err := Parse(page)
	require.NoError(t, err)

	all := elements(d)
	div := all[3]
	assert.NotContains(t, Text(div), "note")
	assert.Contains(t, Text(div), "two three")

	v, ok := Attr(all[5], "data-x")
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	_, ok = Attr(all[4], "data-x")
	assert.False(t, ok)

	assert.Equal(t, `<a href="/x">link</a>`, OuterHTML(all[7]))
}

func TestSelection(t *testing.T) {
	d, err := Parse(page)
	require.NoError(t, err)

	all := elements(d)
	sel := d.Selection([]*html.Node{all[4], all[5]})
	assert.Equal(t, 2, sel.Length())
	assert.Equal(t, "one", sel.First().Text())
}

func TestLoadCompressed(t *testing.T) {
	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	_, err := zw.Write([]byte(page))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	var zs bytes.Buffer
	enc, err := zstd.NewWriter(&zs)
	require.NoError(t, err)
	_, err = enc.Write([]byte(page))
	require.NoError(t, err)
	require.NoError(t, enc.Close())

	for name, data := range map[string][]byte{"gzip": gz.Bytes(), "zstd": zs.Bytes()} {
		t.Run(name, func(t *testing.T) {
			d, err := Load(bytes.NewReader(data))
			require.NoError(t, err)
			assert.Len(t, elements(d), 8)
		})
	}
}

func TestLoadLatin1(t *testing.T) {
	body := "<html><body><p>Caf\xe9 cr\xe8me br\xfbl\xe9e, d\xe9j\xe0 vu, \xe0 la fa\xe7on fran\xe7aise \xe9l\xe9gante et tr\xe8s r\xe9ussie.</p></body></html>"
	require.False(t, utf8.ValidString(body))

	d, err := Load(strings.NewReader(body))
	require.NoError(t, err)
	assert.True(t, utf8.ValidString(Text(d.Root())))
}

func TestLoadTooLarge(t *testing.T) {
	_, err := Parse(page, WithMaxSize(16))
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestLoadSanitize(t *testing.T) {
	src := `<div class="x" id="y" onclick="evil()"><script>alert(1)</script><p>ok</p></div>`

	d, err := Parse(src, WithSanitize(true))
	require.NoError(t, err)

	var div *html.Node
	var scripts int
	Descendants(d.Root(), func(n *html.Node) {
		switch n.Data {
		case "div":
			div = n
		case "script":
			scripts++
		}
	})
	require.NotNil(t, div)
	assert.Zero(t, scripts)

	class, ok := Attr(div, "class")
	assert.True(t, ok)
	assert.Equal(t, "x", class)
	_, ok = Attr(div, "onclick")
	assert.False(t, ok)
}

func TestParseEmpty(t *testing.T) {
	d, err := Parse("")
	require.NoError(t, err)
	assert.Equal(t, []string{"html", "head", "body"}, tags(elements(d)))
}

package extract

import (
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEngine struct {
	content string
	err     error
	calls   int
	base    *url.URL
}

func (s *stubEngine) MainContent(_ string, base *url.URL) (string, error) {
	s.calls++
	s.base = base
	return s.content, s.err
}

func TestBaseURL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "https://example.com/article?id=3#top", want: "https://example.com"},
		{in: "http://news.example.org:8080/a/b/c", want: "http://news.example.org:8080"},
		{in: "not a url", wantErr: true},
		{in: "/relative/path", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := BaseURL(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestReadabilityExtract_AnchorsAtOrigin(t *testing.T) {
	engine := &stubEngine{content: "<p>Hello <a href=\"/docs/intro\">docs</a> world</p>"}
	e := ReadabilityExtractor{Engine: engine}

	c, err := e.Extract("https://example.com/blog/post?x=1", "<html><body><p>Hello docs world</p></body></html>")
	require.NoError(t, err)
	require.NotNil(t, engine.base)
	assert.Equal(t, "https://example.com", engine.base.String())
	assert.Equal(t, SourceReadability, c.Source)
	assert.Equal(t, "Hello docs world", c.Text)
	assert.Equal(t, 3, c.WordCount)
}

func TestReadabilityExtract_TextCarriesNoMarkupSyntax(t *testing.T) {
	page := "<html><body><p>body</p></body></html>"
	tests := []struct {
		name     string
		fragment string
		words    int
		contains []string
	}{
		{name: "heading", fragment: "<h1>Guide</h1><h2>Setup steps</h2>", words: 3, contains: []string{"Guide", "Setup steps"}},
		{name: "list", fragment: "<ul><li>alpha beta gamma</li><li>delta epsilon</li></ul><ol><li>first</li></ol>", words: 6, contains: []string{"alpha beta gamma", "delta epsilon"}},
		{name: "link and image", fragment: `<p>See <a href="https://example.com/x">the docs</a> and <img src="/i.png" alt="chart"> here.</p>`, words: 5, contains: []string{"See the docs and here."}},
		{name: "table", fragment: "<table><tr><th>a</th><th>b</th></tr><tr><td>one</td><td>two</td></tr></table>", words: 4, contains: []string{"a b", "one two"}},
		{name: "emphasis and code", fragment: "<p><strong>bold</strong> and <em>soft</em> <code>x := 1</code></p>", words: 6, contains: []string{"bold and soft"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ReadabilityExtractor{Engine: &stubEngine{content: tt.fragment}}.Extract("https://example.com/a", page)
			require.NoError(t, err)
			assert.Equal(t, tt.words, c.WordCount, "text %q", c.Text)
			for _, want := range tt.contains {
				assert.Contains(t, c.Text, want)
			}
			for _, bad := range []string{"#", "|", "](", "http", "**", "`"} {
				assert.NotContains(t, c.Text, bad)
			}
			for _, line := range strings.Split(c.Text, "\n") {
				assert.False(t, strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "1. "), "bullet in %q", line)
			}
		})
	}
}

// A list-heavy article just under the readability threshold must not be
// pushed over it by per-item markers.
func TestReadabilityExtract_ListWordCountMatchesVisibleWords(t *testing.T) {
	var b strings.Builder
	b.WriteString("<article><h1>Guide</h1><ul>")
	for i := 0; i < 40; i++ {
		b.WriteString("<li>alpha beta gamma delta epsilon zeta eta theta iota kappa lambda mu</li>")
	}
	b.WriteString("</ul><p>one two three four five six seven eight nine ten</p></article>")

	c, err := ReadabilityExtractor{Engine: &stubEngine{content: b.String()}}.Extract("https://example.com/guide", "<html><body><p>x</p></body></html>")
	require.NoError(t, err)
	assert.Equal(t, 491, c.WordCount)
	assert.True(t, strings.HasPrefix(c.Text, "Guide\n"), "text starts %q", c.Text[:20])
}

func TestReadabilityExtract_WrapsAtWidth(t *testing.T) {
	long := strings.Repeat("lorem ipsum dolor ", 60)
	engine := &stubEngine{content: "<p>" + long + "</p>"}
	e := ReadabilityExtractor{Engine: engine}

	c, err := e.Extract("https://example.com/", "<html><body><p>"+long+"</p></body></html>")
	require.NoError(t, err)
	lines := strings.Split(c.Text, "\n")
	require.Greater(t, len(lines), 1)
	for _, line := range lines {
		assert.LessOrEqual(t, len(line), DefaultWrapWidth, "line %q", line)
	}
	assert.Equal(t, 180, c.WordCount)
}

func TestReadabilityExtract_EmptyMarkupFailsWithoutCallingEngine(t *testing.T) {
	engine := &stubEngine{content: "<p>unused</p>"}
	e := ReadabilityExtractor{Engine: engine}
	for _, markup := range []string{"", "   \n\t"} {
		c, err := e.Extract("https://example.com", markup)
		assert.Nil(t, c)
		assert.True(t, errors.Is(err, ErrParse), "got %v", err)
	}
	assert.Zero(t, engine.calls)
}

func TestReadabilityExtract_Failures(t *testing.T) {
	page := "<html><body><p>Some body text</p></body></html>"
	tests := []struct {
		name   string
		url    string
		markup string
		engine *stubEngine
	}{
		{name: "malformed url", url: "not a url", markup: page, engine: &stubEngine{content: "<p>x</p>"}},
		{name: "no body text", url: "https://example.com", markup: "<html><head><title>t</title></head><body></body></html>", engine: &stubEngine{content: "<p>x</p>"}},
		{name: "engine error", url: "https://example.com", markup: page, engine: &stubEngine{err: errors.New("no article")}},
		{name: "engine returns nothing", url: "https://example.com", markup: page, engine: &stubEngine{content: "<div>  </div>"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ReadabilityExtractor{Engine: tt.engine}.Extract(tt.url, tt.markup)
			assert.Nil(t, c)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrParse)
			var f *Failure
			require.ErrorAs(t, err, &f)
			assert.Equal(t, SourceReadability, f.Source)
		})
	}
}

func TestReadabilityExtract_RealEngine(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><head><title>Field notes</title></head><body>")
	b.WriteString("<nav><a href=\"/\">Home</a> <a href=\"/about\">About</a></nav><article><h1>Field notes</h1>")
	for i := 0; i < 12; i++ {
		b.WriteString("<p>The river delta shifted again this season, and the survey team recorded new sandbars, ")
		b.WriteString("migrating channels, and a surprising number of wading birds along the eastern margin.</p>")
	}
	b.WriteString("</article></body></html>")

	c, err := ReadabilityExtractor{}.Extract("https://example.com/notes/delta", b.String())
	require.NoError(t, err)
	assert.Contains(t, c.Text, "wading birds")
	assert.Greater(t, c.WordCount, 200)
}

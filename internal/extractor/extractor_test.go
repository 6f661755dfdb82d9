package extractor_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/samvad-hq/brokennews-extractor/internal/diaglog"
	"github.com/samvad-hq/brokennews-extractor/internal/domain"
	"github.com/samvad-hq/brokennews-extractor/internal/extractor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder collects diagnostic lines synchronously.
type recorder struct {
	lines []string
}

func (r *recorder) Enqueue(message string) error {
	r.lines = append(r.lines, message)
	return nil
}

func parse(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func page(items ...string) string {
	return "<html><head><title>news</title></head><body><ul class=\"feed\">" +
		strings.Join(items, "\n") +
		"</ul></body></html>"
}

const validItem = `<li class="news-item">
  <div class="news-body">
    <h4>Hello &amp; <b>World</b></h4>
    <a href="/news/42?x=1 ">Read more</a>
    <time datetime="2024-03-05T10:00:00Z">5 March 2024</time>
  </div>
</li>`

func TestExtractor_Extract(t *testing.T) {
	t.Parallel()

	t.Run("emits normalized item", func(t *testing.T) {
		t.Parallel()

		rec := &recorder{}
		report := extractor.New(extractor.DefaultRules(), rec, nil).Extract(parse(t, page(validItem)))

		require.Len(t, report.Items, 1)
		assert.Equal(t, domain.NewsItem{
			Title: "Hello & World",
			Url:   "https://brokennews.net/news/42?x=1",
			Date:  "2024-03-05",
		}, report.Items[0])
		assert.False(t, report.Broad)
		assert.Equal(t, 1, report.Candidates)
		assert.Empty(t, rec.lines)
	})

	t.Run("falls back to every list item when no news-item class exists", func(t *testing.T) {
		t.Parallel()

		html := page(
			`<li><div class="news-body"><a href="/a">First story</a><time datetime="2024-01-02">x</time></div></li>`,
			`<li><span>Menu entry</span></li>`,
		)
		rec := &recorder{}
		report := extractor.New(extractor.DefaultRules(), rec, nil).Extract(parse(t, html))

		assert.True(t, report.Broad)
		assert.Equal(t, 2, report.Candidates)
		require.Len(t, report.Items, 1)
		assert.Equal(t, "First story", report.Items[0].Title)
		require.Len(t, rec.lines, 1)
		assert.Equal(t,
			`skipped block /html[1]/body[1]/ul[1]/li[2] (trash content): elements - <span class="">.`,
			rec.lines[0])
	})

	t.Run("trash diagnostic lists child elements", func(t *testing.T) {
		t.Parallel()

		html := page(`<li class="news-item"><div class="promo">Buy now</div><a class="cta" href="/shop">Shop</a></li>`)
		rec := &recorder{}
		report := extractor.New(extractor.DefaultRules(), rec, nil).Extract(parse(t, html))

		assert.Empty(t, report.Items)
		require.Len(t, report.Rejections, 1)
		assert.Equal(t, extractor.ReasonTrash, report.Rejections[0].Reason)
		require.Len(t, rec.lines, 1)
		assert.Contains(t, rec.lines[0], `<div class="promo">, <a class="cta">`)
		assert.Contains(t, rec.lines[0], "/html[1]/body[1]/ul[1]/li[1]")
	})

	t.Run("news body class must match exactly", func(t *testing.T) {
		t.Parallel()

		html := page(`<li class="news-item"><div class="news-body wide"><a href="/a">A</a><time datetime="2024-01-02"></time></div></li>`)
		report := extractor.New(extractor.DefaultRules(), &recorder{}, nil).Extract(parse(t, html))

		assert.Empty(t, report.Items)
		require.Len(t, report.Rejections, 1)
		assert.Equal(t, extractor.ReasonTrash, report.Rejections[0].Reason)
	})

	t.Run("blank blocks are dropped without a diagnostic", func(t *testing.T) {
		t.Parallel()

		html := page(`<li class="news-item"><div class="news-body">  &nbsp; <span> </span></div></li>`)
		rec := &recorder{}
		report := extractor.New(extractor.DefaultRules(), rec, nil).Extract(parse(t, html))

		assert.Empty(t, report.Items)
		require.Len(t, report.Rejections, 1)
		assert.Equal(t, extractor.ReasonEmpty, report.Rejections[0].Reason)
		assert.Empty(t, rec.lines)
	})

	t.Run("rejects blocks without a site relative link", func(t *testing.T) {
		t.Parallel()

		cases := []string{
			`<li class="news-item"><div class="news-body"><h4>No link</h4><time datetime="2024-01-02"></time></div></li>`,
			`<li class="news-item"><div class="news-body"><a href="https://other.example/x">External</a><time datetime="2024-01-02"></time></div></li>`,
			`<li class="news-item"><div class="news-body"><a href="#top">Anchor</a><time datetime="2024-01-02"></time></div></li>`,
			`<li class="news-item"><div class="news-body"><a href="  ">Blank</a><time datetime="2024-01-02"></time></div></li>`,
		}

		for _, item := range cases {
			rec := &recorder{}
			report := extractor.New(extractor.DefaultRules(), rec, nil).Extract(parse(t, page(item)))

			assert.Empty(t, report.Items, item)
			require.Len(t, rec.lines, 1, item)
			assert.Equal(t, "skipped block /html[1]/body[1]/ul[1]/li[1]: missing link.", rec.lines[0])
		}
	})

	t.Run("title falls back to link text", func(t *testing.T) {
		t.Parallel()

		html := page(
			`<li class="news-item"><div class="news-body"><a href="/a"> Link   title </a><time datetime="2024-01-02"></time></div></li>`,
			`<li class="news-item"><div class="news-body"><h4> </h4><a href="/b">Second</a><time datetime="2024-01-02"></time></div></li>`,
		)
		report := extractor.New(extractor.DefaultRules(), &recorder{}, nil).Extract(parse(t, html))

		require.Len(t, report.Items, 2)
		assert.Equal(t, "Link title", report.Items[0].Title)
		assert.Equal(t, "Second", report.Items[1].Title)
	})

	t.Run("rejects blocks without a title", func(t *testing.T) {
		t.Parallel()

		html := page(`<li class="news-item"><div class="news-body"><a href="/a"><img src="x.png"></a><time>2024-01-02</time></div></li>`)
		rec := &recorder{}
		report := extractor.New(extractor.DefaultRules(), rec, nil).Extract(parse(t, html))

		assert.Empty(t, report.Items)
		require.Len(t, rec.lines, 1)
		assert.Equal(t, "skipped block /html[1]/body[1]/ul[1]/li[1]: missing title.", rec.lines[0])
	})

	t.Run("date falls back to element text", func(t *testing.T) {
		t.Parallel()

		html := page(`<li class="news-item"><div class="news-body"><a href="/a">A</a><time> March 5, 2024 </time></div></li>`)
		report := extractor.New(extractor.DefaultRules(), &recorder{}, nil).Extract(parse(t, html))

		require.Len(t, report.Items, 1)
		assert.Equal(t, "2024-03-05", report.Items[0].Date)
	})

	t.Run("rejects missing dates", func(t *testing.T) {
		t.Parallel()

		html := page(
			`<li class="news-item"><div class="news-body"><a href="/a">No time element</a></div></li>`,
			`<li class="news-item"><div class="news-body"><a href="/b">Empty time</a><time datetime=""> </time></div></li>`,
		)
		rec := &recorder{}
		report := extractor.New(extractor.DefaultRules(), rec, nil).Extract(parse(t, html))

		assert.Empty(t, report.Items)
		assert.Equal(t, []string{
			"skipped block /html[1]/body[1]/ul[1]/li[1]: missing date.",
			"skipped block /html[1]/body[1]/ul[1]/li[2]: missing date.",
		}, rec.lines)
	})

	t.Run("rejects unparsable dates from attribute and text", func(t *testing.T) {
		t.Parallel()

		html := page(
			`<li class="news-item"><div class="news-body"><a href="/a">Attr</a><time datetime="not a date">March 5, 2024</time></div></li>`,
			`<li class="news-item"><div class="news-body"><a href="/b">Text</a><time>yesterday</time></div></li>`,
		)
		rec := &recorder{}
		report := extractor.New(extractor.DefaultRules(), rec, nil).Extract(parse(t, html))

		assert.Empty(t, report.Items)
		assert.Equal(t, []string{
			"skipped block /html[1]/body[1]/ul[1]/li[1]: unrecognized date 'not a date'.",
			"skipped block /html[1]/body[1]/ul[1]/li[2]: unrecognized date 'yesterday'.",
		}, rec.lines)
		for _, r := range report.Rejections {
			assert.Equal(t, extractor.ReasonInvalidDate, r.Reason)
		}
	})

	t.Run("bare numbers are not dates and weekday prefixes are accepted", func(t *testing.T) {
		t.Parallel()

		html := page(
			`<li class="news-item"><div class="news-body"><a href="/a">Views</a><time>2024</time></div></li>`,
			`<li class="news-item"><div class="news-body"><a href="/b">Id</a><time datetime="1700000000"></time></div></li>`,
			`<li class="news-item"><div class="news-body"><a href="/c">Weekday</a><time>Tuesday, 05 March 2024 10:00</time></div></li>`,
		)
		rec := &recorder{}
		report := extractor.New(extractor.DefaultRules(), rec, nil).Extract(parse(t, html))

		assert.Equal(t, []domain.NewsItem{
			{Title: "Weekday", Url: "https://brokennews.net/c", Date: "2024-03-05"},
		}, report.Items)
		assert.Equal(t, []string{
			"skipped block /html[1]/body[1]/ul[1]/li[1]: unrecognized date '2024'.",
			"skipped block /html[1]/body[1]/ul[1]/li[2]: unrecognized date '1700000000'.",
		}, rec.lines)
	})

	t.Run("entities are decoded once", func(t *testing.T) {
		t.Parallel()

		html := page(`<li class="news-item"><div class="news-body"><h4>AT&amp;amp;T</h4><a href="/q?a=1&amp;amp;b=2">x</a><time datetime="2024-01-02"></time></div></li>`)
		report := extractor.New(extractor.DefaultRules(), &recorder{}, nil).Extract(parse(t, html))

		require.Len(t, report.Items, 1)
		assert.Equal(t, "AT&amp;T", report.Items[0].Title)
		assert.Equal(t, "https://brokennews.net/q?a=1&amp;b=2", report.Items[0].Url)
	})

	t.Run("custom rules", func(t *testing.T) {
		t.Parallel()

		rules := extractor.Rules{
			BaseOrigin:     "https://example.org/",
			ItemSelector:   "article.story",
			BodyClass:      "story-body",
			TitleSelectors: []string{"h2", "h3"},
		}
		html := `<html><body>
<article class="story"><div class="story-body"><h3>Fallback heading</h3><a href="/s/1">more</a><time datetime="2023-12-31"></time></div></article>
</body></html>`
		report := extractor.New(rules, &recorder{}, nil).Extract(parse(t, html))

		require.Len(t, report.Items, 1)
		assert.Equal(t, domain.NewsItem{Title: "Fallback heading", Url: "https://example.org/s/1", Date: "2023-12-31"}, report.Items[0])
	})

	t.Run("nil document yields an empty result", func(t *testing.T) {
		t.Parallel()

		report := extractor.New(extractor.Rules{}, nil, nil).Extract(nil)
		assert.NotNil(t, report.Items)
		assert.Empty(t, report.Items)
	})
}

func TestExtractor_ProcessIsIdempotent(t *testing.T) {
	t.Parallel()

	doc := parse(t, page(
		validItem,
		`<li class="news-item"><div class="news-body"><a href="/b">Second</a><time datetime="2024-02-01"></time></div></li>`,
	))
	ex := extractor.New(extractor.DefaultRules(), &recorder{}, nil)

	first := ex.Process(doc)
	second := ex.Process(doc)

	require.Len(t, first, 2)
	assert.Equal(t, first, second)
}

func TestExtractor_WritesDiagnosticsInDocumentOrder(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "log.txt")
	diag, err := diaglog.Open(path)
	require.NoError(t, err)

	html := page(
		validItem,
		`<li class="news-item"><div class="news-body"><h4>No link</h4><time datetime="2024-01-02"></time></div></li>`,
		`<li class="news-item"><div class="news-body"><a href="/c">Bad date</a><time datetime="32/13/2024"></time></div></li>`,
	)
	items := extractor.New(extractor.DefaultRules(), diag, nil).Process(parse(t, html))
	require.NoError(t, diag.Close())

	require.Len(t, items, 1)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(raw), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "li[2]: missing link.")
	assert.Contains(t, lines[1], "li[3]: unrecognized date '32/13/2024'.")
	assert.Regexp(t, `^\d{2}-\d{2}-\d{4}, \d{2}:\d{2}:\d{2} - skipped block `, lines[0])
}

func TestRejectionMessage(t *testing.T) {
	t.Parallel()

	r := extractor.Rejection{Location: "/html[1]/body[1]/ul[1]/li[4]", Reason: extractor.ReasonBlockError, Detail: "boom"}
	assert.Equal(t, "block parse error at /html[1]/body[1]/ul[1]/li[4]: boom", r.Message())
	assert.False(t, r.Silent())
	assert.Equal(t, "block_error", r.Reason.String())
}

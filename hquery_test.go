package hquery

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const page = `<html><body>
<div class="a" id="first"><p>text 1</p><p>text 2</p><p>text 3</p></div>
<div class="b"><p>text 4</p><p>text 5</p><p>text 6</p></div>
<ul class="nav">
  <li><a href="https://example.com/one">One</a></li>
  <li><a href="/two">Two</a></li>
</ul>
<script>alert("x")</script>
</body></html>`

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) RecordQuery(status, kind string, d time.Duration, results int) {
	m.Called(status, kind, d, results)
}

func (m *mockRecorder) RecordDocument(source string, size int64) {
	m.Called(source, size)
}

func newQuery(t *testing.T, opts ...Option) *Query {
	t.Helper()
	q, err := New(page, opts...)
	require.NoError(t, err)
	return q
}

func TestQueryUnionOfIndexedPipelines(t *testing.T) {
	res, err := newQuery(t).Query(`(class a > tag p:1:2 | class b > tag p:0) > text @replace," ","""`)
	require.NoError(t, err)

	assert.True(t, res.IsText())
	assert.Equal(t, "texts", res.Kind())
	assert.Equal(t, []string{"text2", "text3", "text4"}, res.Texts())
	assert.Nil(t, res.Nodes())
}

func TestQueryNodes(t *testing.T) {
	res, err := newQuery(t).Query("class a > tag p:0,2")
	require.NoError(t, err)

	assert.False(t, res.IsText())
	assert.Equal(t, 2, res.Len())
	assert.Nil(t, res.Texts())
	assert.Equal(t, []string{"<p>text 1</p>", "<p>text 3</p>"}, res.HTML())
	assert.Equal(t, res.HTML(), res.Strings())

	first, ok := res.First()
	assert.True(t, ok)
	assert.Equal(t, "<p>text 1</p>", first)

	sel := res.Selection()
	assert.Equal(t, 2, sel.Length())
	assert.Equal(t, "text 3", sel.Last().Text())
}

func TestQueryLargeIndexStep(t *testing.T) {
	q := newQuery(t)
	var res *Result
	var err error
	require.NotPanics(t, func() { res, err = q.Query("tag p:1:5:9223372036854775807") })
	require.NoError(t, err)
	assert.Equal(t, 1, res.Len())
}

func TestQueryEmptyResult(t *testing.T) {
	res, err := newQuery(t).Query("class missing > text")
	require.NoError(t, err)

	assert.Equal(t, 0, res.Len())
	_, ok := res.First()
	assert.False(t, ok)
}

func TestQueryErrors(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		target error
		status string
	}{
		{"lex", `tag "open`, ErrLex, "lex_error"},
		{"parse", "tag", ErrParse, "parse_error"},
		{"unknown function", "text @shout", ErrParse, "parse_error"},
		{"bad regex", `tag ~"["`, ErrEval, "eval_error"},
		{"argument type", "text @contains,3", ErrEval, "eval_error"},
	}

	q := newQuery(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := q.Query(tt.query)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, tt.target)
			assert.Equal(t, tt.status, Status(err))
		})
	}
}

func TestStatus(t *testing.T) {
	assert.Equal(t, "ok", Status(nil))
	assert.Equal(t, "load_error", Status(errors.New("boom")))
}

func TestQueryCachesCompiledExpressions(t *testing.T) {
	q := newQuery(t)
	const text = "tag a > href"

	_, err := q.Query(text)
	require.NoError(t, err)
	first, ok := q.cache.Load(text)
	require.True(t, ok)

	_, err = q.Query(text)
	require.NoError(t, err)
	second, _ := q.cache.Load(text)
	assert.Same(t, first, second)

	_, err = q.Query("tag")
	require.Error(t, err)
	_, ok = q.cache.Load("tag")
	assert.False(t, ok, "failed compilations are not cached")
}

func TestCompileAndEval(t *testing.T) {
	e, err := Compile("class nav > tag a > href @starts_with,\"https\"")
	require.NoError(t, err)
	assert.True(t, e.YieldsText())
	assert.Equal(t, "class nav > tag a > href @starts_with,\"https\"", e.Source())

	again, err := Compile(e.String())
	require.NoError(t, err)
	assert.Equal(t, e.String(), again.String())

	res, err := newQuery(t).Eval(e)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/one"}, res.Texts())

	other, err := New(`<div class="nav"><a href="https://x.org">x</a></div>`)
	require.NoError(t, err)
	res, err = other.Eval(e)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://x.org"}, res.Texts())
}

func TestMustCompile(t *testing.T) {
	assert.NotPanics(t, func() { MustCompile("tag p") })
	assert.Panics(t, func() { MustCompile("tag") })
}

func TestWithMaxDepth(t *testing.T) {
	_, err := Compile("((tag p))", WithMaxDepth(1))
	assert.ErrorIs(t, err, ErrParse)

	_, err = newQuery(t, WithMaxDepth(1)).Query("((tag p))")
	assert.ErrorIs(t, err, ErrParse)

	_, err = newQuery(t, WithMaxDepth(2)).Query("((tag p))")
	assert.NoError(t, err)
}

func TestThen(t *testing.T) {
	q := newQuery(t)
	divs, err := q.Query("class b")
	require.NoError(t, err)

	res, err := divs.Then("tag p:1 > text")
	require.NoError(t, err)
	assert.Equal(t, []string{"text 5"}, res.Texts())

	_, err = res.Then("tag p")
	assert.ErrorIs(t, err, ErrEval)
}

func TestNewFromReaderGzip(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(page))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	q, err := NewFromReader(&buf)
	require.NoError(t, err)
	res, err := q.Query("id first > tag p > text @join,\",\"")
	require.NoError(t, err)
	assert.Equal(t, []string{"text 1,text 2,text 3"}, res.Texts())
}

func TestWithMaxSize(t *testing.T) {
	_, err := New(page, WithMaxSize(16))
	require.Error(t, err)
	assert.Equal(t, "load_error", Status(err))
}

func TestWithSanitize(t *testing.T) {
	res, err := newQuery(t).Query("tag script")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Len())

	res, err = newQuery(t, WithSanitize()).Query("tag script")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Len())
}

func TestWithRecorder(t *testing.T) {
	rec := new(mockRecorder)
	rec.On("RecordDocument", "string", int64(len(page))).Once()
	rec.On("RecordQuery", "ok", "texts", mock.Anything, 6).Once()
	rec.On("RecordQuery", "ok", "nodes", mock.Anything, 2).Once()
	rec.On("RecordQuery", "parse_error", "", mock.Anything, 0).Once()

	q := newQuery(t, WithRecorder(rec))
	_, err := q.Query("tag p > text")
	require.NoError(t, err)
	_, err = q.Query("tag a")
	require.NoError(t, err)
	_, err = q.Query("tag")
	require.Error(t, err)

	rec.AssertExpectations(t)
}

func TestConcurrentQueries(t *testing.T) {
	q := newQuery(t)
	queries := []string{"tag p > text", "tag a > href", "class a | class b", "tag p > text @uppercase"}

	want := make(map[string][]string, len(queries))
	for _, text := range queries {
		res, err := q.Query(text)
		require.NoError(t, err)
		want[text] = res.Strings()
	}

	var wg sync.WaitGroup
	errs := make(chan string, 64)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			text := queries[i%len(queries)]
			res, err := q.Query(text)
			if err != nil || strings.Join(res.Strings(), "\x00") != strings.Join(want[text], "\x00") {
				errs <- text
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for text := range errs {
		t.Errorf("concurrent result differs for %q", text)
	}
}

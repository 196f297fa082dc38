package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/hanprep/internal/model"
	"github.com/ppiankov/hanprep/internal/textio"
)

func newTestCleaner(cfg model.FilterConfig) *Cleaner {
	log, _ := test.NewNullLogger()
	return NewCleaner(cfg, log)
}

func TestCleaner_DefaultChain(t *testing.T) {
	c := newTestCleaner(model.DefaultConfig().Filter)

	lines := []string{
		"今天天气很好，我们去公园。",
		"",
		"   ",
		"你好。再见。",
		"短句。",
		"今天天气很好，我们去公园。",
		"★★今天天气不错，出去走走吧。",
	}

	out, stats := c.Clean(lines)

	assert.Equal(t, []string{
		"今天天气很好我们去公园",
		"今天天气不错出去走走吧",
	}, out)
	assert.Equal(t, CleanStats{
		Input:     7,
		Output:    2,
		Blank:     2,
		Complex:   1,
		Length:    1,
		Duplicate: 1,
	}, stats)
}

func TestCleaner_NoSteps(t *testing.T) {
	c := newTestCleaner(model.FilterConfig{MinLen: 1, MaxLen: 100})

	out, stats := c.Clean([]string{"a b c", "a b c", " x "})

	assert.Equal(t, []string{"a b c", "a b c", "x"}, out)
	assert.Equal(t, 0, stats.Duplicate)
}

func TestCleaner_Substitutions(t *testing.T) {
	c := newTestCleaner(model.FilterConfig{
		Normalize:    true,
		EnglishWords: true,
		Digits:       true,
		Punctuation:  true,
		MinLen:       1,
		MaxLen:       100,
	})

	out, _ := c.Clean([]string{"ＡＢＣ我有１２３个苹果！"})

	assert.Equal(t, []string{"我有个苹果"}, out)
}

func TestCleaner_ZeroBoundsUseDefaults(t *testing.T) {
	c := newTestCleaner(model.FilterConfig{})

	out, stats := c.Clean([]string{"一二三四", "一二三四五"})

	assert.Equal(t, []string{"一二三四五"}, out)
	assert.Equal(t, 1, stats.Length)
}

func TestCleanStats_Add(t *testing.T) {
	total := CleanStats{Input: 1, Output: 1}
	total.Add(CleanStats{Input: 3, Output: 1, Blank: 1, Duplicate: 1})

	assert.Equal(t, CleanStats{Input: 4, Output: 2, Blank: 1, Duplicate: 1}, total)
}

func TestCleanFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "raw.txt")
	out := filepath.Join(dir, "clean.txt")

	require.NoError(t, textio.WriteLines(in, []string{"我们今天去北京。", "我们今天去北京。", "好"}))

	c := newTestCleaner(model.DefaultConfig().Filter)
	stats, err := c.CleanFile(context.Background(), in, out)
	require.NoError(t, err)

	got, err := textio.ReadLines(out)
	require.NoError(t, err)
	assert.Equal(t, []string{"我们今天去北京"}, got)
	assert.Equal(t, 3, stats.Input)
	assert.Equal(t, 1, stats.Output)
}

func TestCleanFile_HTML(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "page.html")
	out := filepath.Join(dir, "clean.txt")

	page := `<html><head><script>var x = "忽略这一段脚本";</script></head>
<body><p>今天天气很好。我们去公园散步。</p></body></html>`
	require.NoError(t, os.WriteFile(in, []byte(page), 0o644))

	c := newTestCleaner(model.DefaultConfig().Filter)
	_, err := c.CleanFile(context.Background(), in, out)
	require.NoError(t, err)

	got, err := textio.ReadLines(out)
	require.NoError(t, err)
	assert.Equal(t, []string{"今天天气很好", "我们去公园散步"}, got)
}

func TestCleanFile_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newTestCleaner(model.DefaultConfig().Filter)
	_, err := c.CleanFile(ctx, "unused", "unused")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCleanFile_MissingInput(t *testing.T) {
	c := newTestCleaner(model.DefaultConfig().Filter)
	_, err := c.CleanFile(context.Background(), filepath.Join(t.TempDir(), "nope.txt"), "out.txt")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

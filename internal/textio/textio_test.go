package textio

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteThenRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	lines := []string{"今天天气好。", "  前后空格  ", "", "last"}

	require.NoError(t, WriteLines(path, lines))

	got, err := ReadLines(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"今天天气好。", "前后空格", "", "last"}, got)
}

func TestWriteLines_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	require.NoError(t, WriteLines(path, []string{"a", "b", "c"}))
	require.NoError(t, WriteLines(path, []string{"x"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "x\n", string(data))
}

func TestReadLines_StripsCRLF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crlf.txt")
	require.NoError(t, os.WriteFile(path, []byte("一\r\n二\r\n"), 0644))

	got, err := ReadLines(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"一", "二"}, got)
}

func TestReadLines_BareCarriageReturn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cr.txt")
	require.NoError(t, os.WriteFile(path, []byte("第一行\r第二行\r\n第三行\r"), 0644))

	got, err := ReadLines(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"第一行", "第二行", "第三行"}, got)
}

func TestReadLines_Missing(t *testing.T) {
	_, err := ReadLines(filepath.Join(t.TempDir(), "nope.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMergeDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("b1\nb2\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a1\n"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))

	target := filepath.Join(t.TempDir(), "merged.txt")
	require.NoError(t, os.WriteFile(target, []byte("existing\n"), 0644))

	require.NoError(t, MergeDir(dir, target, MergeOptions{}))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "existing\na1\nb1\nb2\n", string(data))
}

func TestMergeDir_MissingNewline(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "1.txt"), []byte("one"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2.txt"), []byte("two\n"), 0644))

	plain := filepath.Join(t.TempDir(), "plain.txt")
	require.NoError(t, MergeDir(dir, plain, MergeOptions{}))
	data, err := os.ReadFile(plain)
	require.NoError(t, err)
	assert.Equal(t, "onetwo\n", string(data))

	fixed := filepath.Join(t.TempDir(), "fixed.txt")
	require.NoError(t, MergeDir(dir, fixed, MergeOptions{EnsureNewline: true}))
	data, err = os.ReadFile(fixed)
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", string(data))
}

func TestMergeDir_SkipsTargetInsideDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a\n"), 0644))
	target := filepath.Join(dir, "z_all.txt")

	require.NoError(t, MergeDir(dir, target, MergeOptions{}))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "a\n", string(data))
}

func TestMergeDir_MissingDir(t *testing.T) {
	err := MergeDir(filepath.Join(t.TempDir(), "missing"), filepath.Join(t.TempDir(), "out"), MergeOptions{})
	assert.Error(t, err)
}

func TestReadHTMLText(t *testing.T) {
	page := `<html><head><title>标题</title><script>var x = "忽略";</script>
<style>p { color: red }</style></head>
<body><p>第一段。</p>
<div>  第二段  <span>内嵌</span></div></body></html>`

	path := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(path, []byte(page), 0644))

	lines, err := ReadHTMLText(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"标题", "第一段。", "第二段", "内嵌"}, lines)
	assert.NotContains(t, strings.Join(lines, ""), "忽略")
}

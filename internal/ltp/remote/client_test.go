package remote

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/hanprep/internal/cache"
	"github.com/ppiankov/hanprep/internal/ltp"
	"github.com/ppiankov/hanprep/internal/model"
)

// fakeServer mimics the model server protocol
type fakeServer struct {
	mu       sync.Mutex
	hits     map[string]int
	loaded   map[string]string
	failPath string
	lastBody map[string]any
}

func newFakeServer(t *testing.T) (*fakeServer, *httptest.Server) {
	t.Helper()
	fs := &fakeServer{hits: map[string]int{}, loaded: map[string]string{}}
	srv := httptest.NewServer(http.HandlerFunc(fs.serve))
	t.Cleanup(srv.Close)
	return fs, srv
}

func (f *fakeServer) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/")
	f.hits[path]++

	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	f.lastBody = body

	if path == f.failPath {
		http.Error(w, "model crashed", http.StatusInternalServerError)
		return
	}

	switch path {
	case "models/load":
		modelPath, _ := body["path"].(string)
		if strings.Contains(modelPath, "missing") {
			http.Error(w, "no such model", http.StatusNotFound)
			return
		}
		id := "h" + modelPath
		f.loaded[id] = modelPath
		writeJSON(w, map[string]any{"handle": id})
	case "models/release":
		id, _ := body["handle"].(string)
		delete(f.loaded, id)
		writeJSON(w, map[string]any{})
	case "segment":
		sentence, _ := body["sentence"].(string)
		writeJSON(w, map[string]any{"words": strings.Fields(sentence)})
	case "postag":
		writeJSON(w, map[string]any{"tags": repeat("n", len(body["words"].([]any)))})
	case "recognize":
		writeJSON(w, map[string]any{"tags": repeat("O", len(body["words"].([]any)))})
	case "parse":
		writeJSON(w, map[string]any{"arcs": []ltp.Arc{{Head: 0, Relation: "HED"}, {Head: 1, Relation: "VOB"}}})
	case "label":
		writeJSON(w, map[string]any{"roles": []ltp.Role{{Index: 0, Arguments: []ltp.Argument{{Name: "A1", Range: ltp.Span{Start: 1, End: 1}}}}}})
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeServer) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}

func (f *fakeServer) loadedModels() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.loaded)
}

func (f *fakeServer) body() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastBody
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func repeat(s string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = s
	}
	return out
}

func newTestClient(t *testing.T, baseURL string, opts ...Option) *Client {
	t.Helper()
	log, _ := test.NewNullLogger()
	opts = append([]Option{WithLogger(log)}, opts...)
	c, err := NewClient(model.RemoteConfig{BaseURL: baseURL, Timeout: 5 * time.Second}, opts...)
	require.NoError(t, err)
	return c
}

func TestSegmentor_LoadSegmentRelease(t *testing.T) {
	fs, srv := newFakeServer(t)
	kit := newTestClient(t, srv.URL).Toolkit()

	seg := kit.NewSegmentor()
	require.NoError(t, seg.Load("/models/cws.model"))
	assert.Equal(t, 1, fs.loadedModels())

	words, err := seg.Segment("我 爱 北京")
	require.NoError(t, err)
	assert.Equal(t, []string{"我", "爱", "北京"}, words)
	assert.Equal(t, "h/models/cws.model", fs.body()["handle"])

	require.NoError(t, seg.Release())
	assert.Zero(t, fs.loadedModels())

	// second release does not reach the server
	require.NoError(t, seg.Release())
	assert.Equal(t, 1, fs.count("models/release"))
}

func TestModel_NotLoaded(t *testing.T) {
	_, srv := newFakeServer(t)
	kit := newTestClient(t, srv.URL).Toolkit()

	_, err := kit.NewPostagger().Postag([]string{"我"})
	assert.ErrorIs(t, err, ErrNotLoaded)
}

func TestLoad_MissingModel(t *testing.T) {
	_, srv := newFakeServer(t)
	kit := newTestClient(t, srv.URL).Toolkit()

	err := kit.NewParser().Load("/models/missing.model")

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
	assert.Equal(t, "no such model", statusErr.Body)
}

func TestStageFailure_StatusError(t *testing.T) {
	fs, srv := newFakeServer(t)
	fs.failPath = "parse"
	kit := newTestClient(t, srv.URL).Toolkit()

	parser := kit.NewParser()
	require.NoError(t, parser.Load("/models/parser.model"))
	defer func() { _ = parser.Release() }()

	_, err := parser.Parse([]string{"看", "书"}, []string{"v", "n"})

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.Code)
	assert.Equal(t, "parse", statusErr.Endpoint)
	assert.Equal(t, 1, fs.count("parse"), "client must not retry")
}

func TestAllStages(t *testing.T) {
	fs, srv := newFakeServer(t)
	kit := newTestClient(t, srv.URL).Toolkit()
	words := []string{"看", "书"}

	pos := kit.NewPostagger()
	require.NoError(t, pos.Load("pos.model"))
	tags, err := pos.Postag(words)
	require.NoError(t, err)
	assert.Equal(t, []string{"n", "n"}, tags)

	ner := kit.NewRecognizer()
	require.NoError(t, ner.Load("ner.model"))
	entities, err := ner.Recognize(words, tags)
	require.NoError(t, err)
	assert.Equal(t, []string{"O", "O"}, entities)

	parser := kit.NewParser()
	require.NoError(t, parser.Load("parser.model"))
	arcs, err := parser.Parse(words, tags)
	require.NoError(t, err)
	assert.Equal(t, []ltp.Arc{{Head: 0, Relation: "HED"}, {Head: 1, Relation: "VOB"}}, arcs)

	labeller := kit.NewLabeller()
	require.NoError(t, labeller.Load("pisrl_win.model"))
	roles, err := labeller.Label(words, tags, arcs)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, "A1", roles[0].Arguments[0].Name)
	assert.Contains(t, fs.body(), "arcs")

	for _, m := range []ltp.Model{pos, ner, parser, labeller} {
		require.NoError(t, m.Release())
	}
	assert.Zero(t, fs.loadedModels())
}

func TestCache_IdenticalRequests(t *testing.T) {
	fs, srv := newFakeServer(t)
	mem := cache.NewMemoryCache(time.Minute, time.Minute)
	kit := newTestClient(t, srv.URL, WithCache(mem, time.Minute)).Toolkit()

	seg := kit.NewSegmentor()
	require.NoError(t, seg.Load("cws.model"))

	first, err := seg.Segment("他 来 了")
	require.NoError(t, err)
	second, err := seg.Segment("他 来 了")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, fs.count("segment"))

	_, err = seg.Segment("她 走 了")
	require.NoError(t, err)
	assert.Equal(t, 2, fs.count("segment"))

	// the cache survives a reload of the same model file
	require.NoError(t, seg.Release())
	require.NoError(t, seg.Load("cws.model"))
	_, err = seg.Segment("他 来 了")
	require.NoError(t, err)
	assert.Equal(t, 2, fs.count("segment"))
}

func TestCache_SharedAcrossServers(t *testing.T) {
	mem := cache.NewMemoryCache(time.Minute, time.Minute)
	fsA, srvA := newFakeServer(t)
	fsB, srvB := newFakeServer(t)

	segA := newTestClient(t, srvA.URL, WithCache(mem, time.Minute)).Toolkit().NewSegmentor()
	segB := newTestClient(t, srvB.URL, WithCache(mem, time.Minute)).Toolkit().NewSegmentor()
	require.NoError(t, segA.Load("cws.model"))
	require.NoError(t, segB.Load("cws.model"))

	_, err := segA.Segment("他 来 了")
	require.NoError(t, err)
	_, err = segB.Segment("他 来 了")
	require.NoError(t, err)

	assert.Equal(t, 1, fsA.count("segment"))
	assert.Equal(t, 1, fsB.count("segment"))
}

func TestNewClient_InvalidBaseURL(t *testing.T) {
	_, err := NewClient(model.RemoteConfig{BaseURL: "ftp://ltp"})
	assert.Error(t, err)

	_, err = NewClient(model.RemoteConfig{BaseURL: "://"})
	assert.Error(t, err)
}

func TestToolkit_SupportsEveryStage(t *testing.T) {
	kit := newTestClient(t, "http://127.0.0.1:1").Toolkit()
	for _, stage := range []ltp.Stage{ltp.StageSegment, ltp.StagePostag, ltp.StageRecognize, ltp.StageParse, ltp.StageLabel} {
		assert.True(t, kit.Supports(stage), stage)
	}
}

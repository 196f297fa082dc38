package remote

import (
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ppiankov/hanprep/internal/cache"
	"github.com/ppiankov/hanprep/internal/ltp"
)

var (
	_ ltp.Segmentor  = (*Segmentor)(nil)
	_ ltp.Postagger  = (*Postagger)(nil)
	_ ltp.Recognizer = (*Recognizer)(nil)
	_ ltp.Parser     = (*Parser)(nil)
	_ ltp.Labeller   = (*Labeller)(nil)
)

// handle is a model loaded on the server
type handle struct {
	client *Client
	stage  ltp.Stage
	path   string
	id     string
}

func (c *Client) handle(stage ltp.Stage) handle {
	return handle{client: c, stage: stage}
}

// Load asks the server to load the model file at path
func (h *handle) Load(path string) error {
	var resp struct {
		Handle string `json:"handle"`
	}
	req := map[string]any{"stage": string(h.stage), "path": path}
	if err := h.client.post("models/load", req, &resp); err != nil {
		return err
	}
	if resp.Handle == "" {
		return fmt.Errorf("remote: load %s returned no handle", path)
	}

	h.id, h.path = resp.Handle, path
	h.client.log.WithFields(logrus.Fields{
		"stage":  h.stage,
		"model":  path,
		"handle": h.id,
	}).Debug("remote model loaded")
	return nil
}

// Release frees the server-side model. Releasing twice is a no-op.
func (h *handle) Release() error {
	if h.id == "" {
		return nil
	}
	id := h.id
	h.id = ""
	return h.client.post("models/release", map[string]any{"handle": id}, nil)
}

// call runs the stage on the server. Responses are cached by server, stage,
// model path and inputs, so a reloaded model still hits the cache.
func (h *handle) call(fields map[string]any, out any) error {
	if h.id == "" {
		return ErrNotLoaded
	}

	key := ""
	if h.client.cache != nil {
		inputs, err := json.Marshal(fields)
		if err != nil {
			return fmt.Errorf("encode cache key: %w", err)
		}
		key = cache.Key(h.client.base.String(), string(h.stage), h.path, string(inputs))
		if raw, ok := h.client.cache.Get(key); ok && json.Unmarshal(raw, out) == nil {
			return nil
		}
	}

	fields["handle"] = h.id
	var raw json.RawMessage
	if err := h.client.post(string(h.stage), fields, &raw); err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", h.stage, err)
	}

	if key != "" {
		if err := h.client.cache.Set(key, raw, h.client.cacheTTL); err != nil {
			h.client.log.WithError(err).Warn("cache write failed")
		}
	}
	return nil
}

// Segmentor splits sentences on the server
type Segmentor struct{ handle }

// Segment implements ltp.Segmentor
func (s *Segmentor) Segment(sentence string) ([]string, error) {
	var resp struct {
		Words []string `json:"words"`
	}
	if err := s.call(map[string]any{"sentence": sentence}, &resp); err != nil {
		return nil, err
	}
	return resp.Words, nil
}

// Postagger tags words on the server
type Postagger struct{ handle }

// Postag implements ltp.Postagger
func (p *Postagger) Postag(words []string) ([]string, error) {
	var resp struct {
		Tags []string `json:"tags"`
	}
	if err := p.call(map[string]any{"words": words}, &resp); err != nil {
		return nil, err
	}
	return resp.Tags, nil
}

// Recognizer tags named entities on the server
type Recognizer struct{ handle }

// Recognize implements ltp.Recognizer
func (r *Recognizer) Recognize(words, postags []string) ([]string, error) {
	var resp struct {
		Tags []string `json:"tags"`
	}
	if err := r.call(map[string]any{"words": words, "postags": postags}, &resp); err != nil {
		return nil, err
	}
	return resp.Tags, nil
}

// Parser runs dependency parsing on the server
type Parser struct{ handle }

// Parse implements ltp.Parser
func (p *Parser) Parse(words, postags []string) ([]ltp.Arc, error) {
	var resp struct {
		Arcs []ltp.Arc `json:"arcs"`
	}
	if err := p.call(map[string]any{"words": words, "postags": postags}, &resp); err != nil {
		return nil, err
	}
	return resp.Arcs, nil
}

// Labeller runs semantic role labelling on the server
type Labeller struct{ handle }

// Label implements ltp.Labeller
func (l *Labeller) Label(words, postags []string, arcs []ltp.Arc) ([]ltp.Role, error) {
	var resp struct {
		Roles []ltp.Role `json:"roles"`
	}
	fields := map[string]any{"words": words, "postags": postags, "arcs": arcs}
	if err := l.call(fields, &resp); err != nil {
		return nil, err
	}
	return resp.Roles, nil
}

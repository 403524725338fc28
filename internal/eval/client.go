// Package eval invokes the model service with schema-constrained batch
// requests and validates the structured responses.
package eval

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"forumjudge/internal/llm"
	"forumjudge/internal/metrics"
)

// ErrBatchMismatch indicates the model returned a result count or order
// that does not match the submitted batch. Permanent: the whole batch
// is abandoned, never partially salvaged.
var ErrBatchMismatch = errors.New("batch result mismatch")

// ChatModel is the minimal model surface the evaluation client needs.
type ChatModel interface {
	ChatJSON(ctx context.Context, systemPrompt, userPrompt string) (string, *llm.TokenUsage, error)
	Name() string
}

// gradingPrompt instructs the model to score every item against the
// fixed response schema. The schema is embedded in the prompt and
// enforced again by the validator on the way back.
const gradingPrompt = `You are a strict quality grader for community discussion forums.
Score each numbered item independently on seven dimensions, each 0-10:
quality, reasoning, persuasiveness, clarity, constructiveness, engagement, hostility.

Respond with a single JSON object of this exact shape:
{"evaluations": [
  {"item": 1, "quality": 0.0, "reasoning": 0.0, "persuasiveness": 0.0,
   "clarity": 0.0, "constructiveness": 0.0, "engagement": 0.0, "hostility": 0.0,
   "tags": ["..."], "key_points": ["..."], "summary": "...", "improvements": "..."}
]}

Rules:
- Return exactly one evaluation per input item, in item order.
- "item" is the 1-based index of the input item.
- "tags" is a short list of topical labels; "key_points" lists the item's main claims in order.
- "summary" is one or two sentences; "improvements" suggests concrete fixes.
- Output JSON only, no prose outside the object.`

// Client sends a sanitized batch to the model in a single request and
// returns validated per-item results.
type Client struct {
	model     ChatModel
	collector *metrics.Collector
	log       *slog.Logger
}

// NewClient creates an evaluation client. The collector and logger may
// be nil.
func NewClient(model ChatModel, collector *metrics.Collector, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{model: model, collector: collector, log: log}
}

// ModelName returns the identifier of the underlying model.
func (c *Client) ModelName() string {
	return c.model.Name()
}

// Evaluate submits the batch as one model request. The returned slice
// pairs 1:1 and in-order with items; any count or order mismatch fails
// the whole batch with ErrBatchMismatch.
func (c *Client) Evaluate(ctx context.Context, items []string) ([]Result, error) {
	if len(items) == 0 {
		return nil, nil
	}

	start := time.Now()
	raw, usage, err := c.model.ChatJSON(ctx, gradingPrompt, renderItems(items))
	if c.collector != nil {
		if usage != nil {
			c.collector.RecordModelUsage(metrics.OpEvaluate, time.Since(start),
				int64(usage.Input), int64(usage.Output))
		} else {
			c.collector.RecordTiming(metrics.OpEvaluate, time.Since(start))
		}
	}
	if err != nil {
		return nil, fmt.Errorf("evaluate batch of %d: %w", len(items), err)
	}

	results, err := parseResponse(raw, len(items))
	if err != nil {
		return nil, err
	}

	c.log.Debug("batch evaluated",
		"items", len(items),
		"model", c.model.Name(),
		"duration_ms", time.Since(start).Milliseconds())
	return results, nil
}

// renderItems numbers the sanitized texts the way the prompt expects.
func renderItems(items []string) string {
	var b strings.Builder
	for i, item := range items {
		fmt.Fprintf(&b, "Item %d:\n%s\n\n", i+1, item)
	}
	return b.String()
}

// responseEnvelope is the expected top-level response shape.
type responseEnvelope struct {
	Evaluations []json.RawMessage `json:"evaluations"`
}

// parseResponse extracts and validates the evaluation array. Count and
// order must match the submitted batch exactly; the model never gets to
// silently truncate or pad.
func parseResponse(raw string, want int) ([]Result, error) {
	body := extractJSON(raw)
	if body == "" {
		return nil, fmt.Errorf("%w: no JSON found in response", llm.ErrInvalidResponse)
	}

	var rawItems []json.RawMessage
	if strings.HasPrefix(body, "[") {
		// Some models return the bare array despite the envelope instruction.
		if err := json.Unmarshal([]byte(body), &rawItems); err != nil {
			return nil, fmt.Errorf("%w: %v", llm.ErrInvalidResponse, err)
		}
	} else {
		var env responseEnvelope
		if err := json.Unmarshal([]byte(body), &env); err != nil {
			return nil, fmt.Errorf("%w: %v", llm.ErrInvalidResponse, err)
		}
		rawItems = env.Evaluations
	}

	if len(rawItems) != want {
		return nil, fmt.Errorf("%w: got %d results for %d items", ErrBatchMismatch, len(rawItems), want)
	}

	results := make([]Result, 0, want)
	for i, data := range rawItems {
		res, err := validateItem(data)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i+1, err)
		}
		// A reported index that disagrees with the position means the
		// model reordered or duplicated results.
		if res.Item != 0 && res.Item != i+1 {
			return nil, fmt.Errorf("%w: result %d reports item %d", ErrBatchMismatch, i+1, res.Item)
		}
		res.Item = i + 1
		results = append(results, *res)
	}
	return results, nil
}

// extractJSON strips code fences and any prose around the outermost
// JSON value.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		if idx := strings.LastIndex(raw, "```"); idx >= 0 {
			raw = raw[:idx]
		}
		raw = strings.TrimSpace(raw)
	}

	objStart := strings.IndexByte(raw, '{')
	arrStart := strings.IndexByte(raw, '[')
	start := objStart
	end := strings.LastIndexByte(raw, '}')
	if objStart == -1 || (arrStart != -1 && arrStart < objStart) {
		start = arrStart
		end = strings.LastIndexByte(raw, ']')
	}
	if start == -1 || end <= start {
		return ""
	}
	return raw[start : end+1]
}

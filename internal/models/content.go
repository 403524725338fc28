package models

import (
	"strings"
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// ContentKind is the granularity of evaluated forum content.
type ContentKind string

const (
	KindPost   ContentKind = "post"
	KindTopic  ContentKind = "topic"
	KindThread ContentKind = "thread"
)

// AllKinds returns every content kind in processing order.
func AllKinds() []ContentKind {
	return []ContentKind{KindPost, KindTopic, KindThread}
}

// Valid reports whether k is a recognized content kind.
func (k ContentKind) Valid() bool {
	switch k {
	case KindPost, KindTopic, KindThread:
		return true
	}
	return false
}

// ContentItem is a row of community content produced by the upstream
// crawlers. The evaluation pipeline only ever reads it.
type ContentItem struct {
	ID      surrealmodels.RecordID `json:"id"`
	Forum   string                 `json:"forum"`
	Kind    ContentKind            `json:"kind"`
	Title   *string                `json:"title,omitempty"`
	Body    string                 `json:"body"`
	Author  *string                `json:"author,omitempty"`
	URL     *string                `json:"url,omitempty"`
	Created time.Time              `json:"created,omitempty"`
}

// Text returns the evaluable text of the item: title and body joined.
func (c ContentItem) Text() string {
	if c.Title != nil && *c.Title != "" {
		return strings.TrimSpace(*c.Title) + "\n\n" + c.Body
	}
	return c.Body
}

// ContentInput is the shape used to insert content rows. Only the
// upstream crawlers (and tests) write content.
type ContentInput struct {
	Forum   string      `json:"forum"`
	Kind    ContentKind `json:"kind"`
	Title   *string     `json:"title,omitempty"`
	Body    string      `json:"body"`
	Author  *string     `json:"author,omitempty"`
	URL     *string     `json:"url,omitempty"`
	Created *time.Time  `json:"created,omitempty"`
}

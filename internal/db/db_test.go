// Package db provides integration tests for SurrealDB operations.
package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"forumjudge/internal/models"
)

var testDB *Client
var testContainer testcontainers.Container

// TestMain sets up and tears down the SurrealDB container for all tests.
func TestMain(m *testing.M) {
	// Disable ryuk (cleanup container) as it can cause issues in some environments
	os.Setenv("TESTCONTAINERS_RYUK_DISABLED", "true")

	ctx := context.Background()

	var err error
	testContainer, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "surrealdb/surrealdb:v3.0.0-beta.1",
			ExposedPorts: []string{"8000/tcp"},
			Cmd:          []string{"start", "--log", "info", "--user", "root", "--pass", "root"},
			WaitingFor:   wait.ForLog("Started web server").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		log.Fatalf("Failed to start SurrealDB container: %v", err)
	}

	host, err := testContainer.Host(ctx)
	if err != nil {
		log.Fatalf("Failed to get container host: %v", err)
	}
	// Workaround: testcontainers may return "null" as host in some environments
	if host == "" || host == "null" {
		host = "localhost"
	}
	mappedPort, err := testContainer.MappedPort(ctx, "8000")
	if err != nil {
		log.Fatalf("Failed to get mapped port: %v", err)
	}

	testDB, err = NewClient(ctx, Config{
		URL:       fmt.Sprintf("ws://%s:%s/rpc", host, mappedPort.Port()),
		Namespace: "test",
		Database:  "test",
		Username:  "root",
		Password:  "root",
		AuthLevel: "root",
	}, nil)
	if err != nil {
		log.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := testDB.InitSchema(ctx); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	code := m.Run()

	_ = testDB.Close(ctx)
	_ = testContainer.Terminate(ctx)

	os.Exit(code)
}

func seedContent(t *testing.T, forum string, kind models.ContentKind, body string, created time.Time) *models.ContentItem {
	t.Helper()
	item, err := testDB.InsertContent(context.Background(), models.ContentInput{
		Forum:   forum,
		Kind:    kind,
		Body:    body,
		Created: &created,
	})
	if err != nil {
		t.Fatalf("InsertContent failed: %v", err)
	}
	return item
}

func evalInput(contentID surrealmodels.RecordID, forum, model string) models.EvaluationInput {
	return models.EvaluationInput{
		ContentID: contentID,
		Forum:     forum,
		Model:     model,
		Scores: models.Scores{
			Quality: 7.5, Reasoning: 6.0, Persuasiveness: 5.0, Clarity: 8.0,
			Constructiveness: 7.0, Engagement: 4.0, Hostility: 0.5,
		},
		Tags:      []string{"governance"},
		KeyPoints: []string{"point one"},
		Summary:   "A test evaluation.",
	}
}

func TestSelectUnevaluatedAntiJoin(t *testing.T) {
	ctx := context.Background()
	if err := testDB.WipeData(ctx); err != nil {
		t.Fatalf("WipeData failed: %v", err)
	}

	now := time.Now()
	seedContent(t, "uniswap", models.KindPost, "older post", now.Add(-time.Hour))
	newer := seedContent(t, "uniswap", models.KindPost, "newer post", now)
	seedContent(t, "uniswap", models.KindTopic, "a topic", now)
	seedContent(t, "aave", models.KindPost, "other forum", now)

	items, err := testDB.SelectUnevaluated(ctx, "uniswap", models.KindPost, "test-model")
	if err != nil {
		t.Fatalf("SelectUnevaluated failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2 (posts in uniswap only)", len(items))
	}
	if items[0].Body != "newer post" {
		t.Errorf("items not newest-first: first body %q", items[0].Body)
	}

	// Evaluate the newer post; it must drop out of the selection.
	if err := testDB.InsertEvaluation(ctx, evalInput(newer.ID, "uniswap", "test-model")); err != nil {
		t.Fatalf("InsertEvaluation failed: %v", err)
	}

	items, err = testDB.SelectUnevaluated(ctx, "uniswap", models.KindPost, "test-model")
	if err != nil {
		t.Fatalf("SelectUnevaluated failed: %v", err)
	}
	if len(items) != 1 || items[0].Body != "older post" {
		t.Errorf("anti-join did not exclude evaluated item: %v", items)
	}

	// A different model still sees both posts.
	items, err = testDB.SelectUnevaluated(ctx, "uniswap", models.KindPost, "other-model")
	if err != nil {
		t.Fatalf("SelectUnevaluated failed: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("other model got %d items, want 2", len(items))
	}
}

func TestSelectUnevaluatedCrawlerSuppliedID(t *testing.T) {
	// Crawlers may supply their own record IDs, including forms
	// SurrealDB renders with angle-bracket escaping (UUIDs, hyphens).
	// The anti-join must exclude these after evaluation exactly like
	// auto-generated IDs.
	ctx := context.Background()
	if err := testDB.WipeData(ctx); err != nil {
		t.Fatalf("WipeData failed: %v", err)
	}

	now := time.Now()
	results, err := surrealdb.Query[[]models.ContentItem](ctx, testDB.DB(), `
		CREATE type::thing("content", $cid) CONTENT $data
	`, map[string]any{
		"cid": "550e8400-e29b-41d4-a716-446655440000",
		"data": models.ContentInput{
			Forum:   "uniswap",
			Kind:    models.KindPost,
			Body:    "uuid id post",
			Created: &now,
		},
	})
	if err != nil {
		t.Fatalf("seed with explicit id failed: %v", err)
	}
	uuidItem := (*results)[0].Result[0]
	seedContent(t, "uniswap", models.KindPost, "plain id post", now)

	items, err := testDB.SelectUnevaluated(ctx, "uniswap", models.KindPost, "test-model")
	if err != nil {
		t.Fatalf("SelectUnevaluated failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}

	if err := testDB.InsertEvaluation(ctx, evalInput(uuidItem.ID, "uniswap", "test-model")); err != nil {
		t.Fatalf("InsertEvaluation failed: %v", err)
	}

	items, err = testDB.SelectUnevaluated(ctx, "uniswap", models.KindPost, "test-model")
	if err != nil {
		t.Fatalf("SelectUnevaluated failed: %v", err)
	}
	if len(items) != 1 || items[0].Body != "plain id post" {
		t.Errorf("uuid-id item not excluded after evaluation: %v", items)
	}
}

func TestInsertEvaluationDuplicate(t *testing.T) {
	ctx := context.Background()
	if err := testDB.WipeData(ctx); err != nil {
		t.Fatalf("WipeData failed: %v", err)
	}

	item := seedContent(t, "compound", models.KindThread, "thread body", time.Now())

	if err := testDB.InsertEvaluation(ctx, evalInput(item.ID, "compound", "test-model")); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}

	err := testDB.InsertEvaluation(ctx, evalInput(item.ID, "compound", "test-model"))
	if !errors.Is(err, ErrDuplicateEvaluation) {
		t.Errorf("duplicate insert error = %v, want ErrDuplicateEvaluation", err)
	}

	// Same content, different model: allowed.
	if err := testDB.InsertEvaluation(ctx, evalInput(item.ID, "compound", "other-model")); err != nil {
		t.Errorf("different model insert failed: %v", err)
	}
}

func TestIdempotentRerun(t *testing.T) {
	ctx := context.Background()
	if err := testDB.WipeData(ctx); err != nil {
		t.Fatalf("WipeData failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		seedContent(t, "maker", models.KindPost, fmt.Sprintf("post %d", i), time.Now())
	}

	items, err := testDB.SelectUnevaluated(ctx, "maker", models.KindPost, "test-model")
	if err != nil {
		t.Fatalf("SelectUnevaluated failed: %v", err)
	}
	for _, item := range items {
		if err := testDB.InsertEvaluation(ctx, evalInput(item.ID, "maker", "test-model")); err != nil {
			t.Fatalf("InsertEvaluation failed: %v", err)
		}
	}

	// Re-running against an unchanged content set selects nothing.
	items, err = testDB.SelectUnevaluated(ctx, "maker", models.KindPost, "test-model")
	if err != nil {
		t.Fatalf("SelectUnevaluated failed: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("re-run selected %d items, want 0", len(items))
	}

	count, err := testDB.CountEvaluations(ctx, "maker", "test-model")
	if err != nil {
		t.Fatalf("CountEvaluations failed: %v", err)
	}
	if count != 3 {
		t.Errorf("CountEvaluations = %d, want 3", count)
	}
}

func TestListForums(t *testing.T) {
	ctx := context.Background()
	if err := testDB.WipeData(ctx); err != nil {
		t.Fatalf("WipeData failed: %v", err)
	}

	seedContent(t, "uniswap", models.KindPost, "a", time.Now())
	seedContent(t, "uniswap", models.KindPost, "b", time.Now())
	seedContent(t, "aave", models.KindTopic, "c", time.Now())

	forums, err := testDB.ListForums(ctx)
	if err != nil {
		t.Fatalf("ListForums failed: %v", err)
	}
	if len(forums) != 2 {
		t.Fatalf("got %d forums, want 2", len(forums))
	}
	counts := map[string]int{}
	for _, f := range forums {
		counts[f.Forum] = f.Count
	}
	if counts["uniswap"] != 2 || counts["aave"] != 1 {
		t.Errorf("forum counts = %v", counts)
	}
}

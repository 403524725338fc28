package db

// SchemaSQL contains the database schema initialization SQL.
//
// The unique index on (content_id, forum, model) is the pipeline's sole
// concurrency-safety mechanism: a duplicate evaluation attempt from a
// concurrent run fails the index, not the data.
const SchemaSQL = `
    -- ==========================================================================
    -- CONTENT TABLE (written by the upstream crawlers, read-only here)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS content SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS forum ON content TYPE string;
    DEFINE FIELD IF NOT EXISTS kind ON content TYPE string ASSERT $value IN ["post", "topic", "thread"];
    DEFINE FIELD IF NOT EXISTS title ON content TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS body ON content TYPE string;
    DEFINE FIELD IF NOT EXISTS author ON content TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS url ON content TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS created ON content TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS content_forum_kind ON content FIELDS forum, kind;
    DEFINE INDEX IF NOT EXISTS content_created ON content FIELDS created;

    -- ==========================================================================
    -- EVALUATION TABLE (append-only)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS evaluation SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS content_id ON evaluation TYPE record<content>;
    DEFINE FIELD IF NOT EXISTS forum ON evaluation TYPE string;
    DEFINE FIELD IF NOT EXISTS model ON evaluation TYPE string;
    DEFINE FIELD IF NOT EXISTS scores ON evaluation TYPE object;
    DEFINE FIELD IF NOT EXISTS scores.quality ON evaluation TYPE float;
    DEFINE FIELD IF NOT EXISTS scores.reasoning ON evaluation TYPE float;
    DEFINE FIELD IF NOT EXISTS scores.persuasiveness ON evaluation TYPE float;
    DEFINE FIELD IF NOT EXISTS scores.clarity ON evaluation TYPE float;
    DEFINE FIELD IF NOT EXISTS scores.constructiveness ON evaluation TYPE float;
    DEFINE FIELD IF NOT EXISTS scores.engagement ON evaluation TYPE float;
    DEFINE FIELD IF NOT EXISTS scores.hostility ON evaluation TYPE float;
    DEFINE FIELD IF NOT EXISTS tags ON evaluation TYPE array<string>;
    DEFINE FIELD IF NOT EXISTS key_points ON evaluation TYPE array<string>;
    DEFINE FIELD IF NOT EXISTS summary ON evaluation TYPE string;
    DEFINE FIELD IF NOT EXISTS improvements ON evaluation TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS created ON evaluation TYPE datetime DEFAULT time::now();

    -- At most one evaluation per (content item, forum) for a given model.
    DEFINE INDEX IF NOT EXISTS evaluation_unique ON evaluation FIELDS content_id, forum, model UNIQUE;
    DEFINE INDEX IF NOT EXISTS evaluation_forum ON evaluation FIELDS forum;
`

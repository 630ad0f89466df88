package db

// SchemaSQL contains the database schema initialization SQL.
const SchemaSQL = `
    -- ==========================================================================
    -- CONVERSATION TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS conversation SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS owner ON conversation TYPE string;
    DEFINE FIELD IF NOT EXISTS title ON conversation TYPE string;
    DEFINE FIELD IF NOT EXISTS business_name ON conversation TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS website_url ON conversation TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS created_at ON conversation TYPE datetime DEFAULT time::now();
    DEFINE FIELD IF NOT EXISTS updated_at ON conversation TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS conversation_owner ON conversation FIELDS owner;

    -- ==========================================================================
    -- MESSAGE TABLE (append-only conversation log)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS message SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS conversation ON message TYPE record<conversation>;
    DEFINE FIELD IF NOT EXISTS role ON message TYPE string ASSERT $value IN ["user", "assistant"];
    DEFINE FIELD IF NOT EXISTS content ON message TYPE string;
    DEFINE FIELD IF NOT EXISTS created_at ON message TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS message_conversation ON message FIELDS conversation;

    -- ==========================================================================
    -- DOCUMENT TABLE
    -- ==========================================================================
    -- The unique index on conversation enforces the one-document-per-
    -- conversation invariant at the storage layer.
    DEFINE TABLE IF NOT EXISTS document SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS conversation ON document TYPE record<conversation>;
    DEFINE FIELD IF NOT EXISTS owner ON document TYPE string;
    DEFINE FIELD IF NOT EXISTS title ON document TYPE string;
    DEFINE FIELD IF NOT EXISTS content ON document TYPE string;
    DEFINE FIELD IF NOT EXISTS created_at ON document TYPE datetime DEFAULT time::now();
    DEFINE FIELD IF NOT EXISTS last_modified ON document TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS document_conversation ON document FIELDS conversation UNIQUE;
    DEFINE INDEX IF NOT EXISTS document_owner ON document FIELDS owner;
`

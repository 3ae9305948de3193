package db

// SchemaSQL contains the conversation schema initialization SQL. Three record
// sets: conversations, their messages, and the content items within each
// message. Ordering is carried by explicit position fields, never by record
// ids or timestamps.
const SchemaSQL = `
    -- ==========================================================================
    -- CONVERSATION TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS conversation SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS created_at ON conversation TYPE datetime DEFAULT time::now();
    DEFINE FIELD IF NOT EXISTS updated_at ON conversation TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS conversation_updated ON conversation FIELDS updated_at;

    -- ==========================================================================
    -- MESSAGE TABLE
    -- ==========================================================================
    -- position is the total order within a conversation, assigned at append
    -- time as current count + batch offset. The unique index rejects any
    -- write that would break that order.
    DEFINE TABLE IF NOT EXISTS message SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS conversation ON message TYPE record<conversation>;
    DEFINE FIELD IF NOT EXISTS external_id ON message TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS role ON message TYPE string
        ASSERT $value IN ["system", "user", "assistant", "tool"];
    DEFINE FIELD IF NOT EXISTS author ON message TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS position ON message TYPE int;
    DEFINE FIELD IF NOT EXISTS created_at ON message TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS message_conversation ON message FIELDS conversation;
    DEFINE INDEX IF NOT EXISTS message_order ON message FIELDS conversation, position UNIQUE;

    -- ==========================================================================
    -- CONTENT TABLE
    -- ==========================================================================
    -- One row per content item, tagged by kind. Variant-specific fields are
    -- optional; only the fields for the row's kind are set.
    DEFINE TABLE IF NOT EXISTS content SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS message ON content TYPE record<message>;
    DEFINE FIELD IF NOT EXISTS position ON content TYPE int;
    DEFINE FIELD IF NOT EXISTS kind ON content TYPE string;
    DEFINE FIELD IF NOT EXISTS text ON content TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS media_type ON content TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS name ON content TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS uri ON content TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS error_message ON content TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS error_code ON content TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS error_details ON content TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS call_id ON content TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS function_name ON content TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS payload ON content TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS input_tokens ON content TYPE option<int>;
    DEFINE FIELD IF NOT EXISTS output_tokens ON content TYPE option<int>;
    DEFINE FIELD IF NOT EXISTS total_tokens ON content TYPE option<int>;

    DEFINE INDEX IF NOT EXISTS content_message ON content FIELDS message;
`

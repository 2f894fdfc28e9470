package postgres

// Migrations returns the embedded migrations in version order.
func Migrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_conversation_turns", UpSQL: migration001Up},
		{Version: 2, Name: "create_training_samples_view", UpSQL: migration002Up},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CONVERSATION TURNS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- One row per answered question. user_hash is the pseudonymous id, never the
-- raw student id.
CREATE TABLE IF NOT EXISTS conversation_turns (
    id UUID PRIMARY KEY,
    user_hash VARCHAR(32) NOT NULL,
    text TEXT NOT NULL,
    intent VARCHAR(40) NOT NULL DEFAULT '',
    source VARCHAR(20) NOT NULL,
    rule VARCHAR(40) NOT NULL DEFAULT '',
    confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
    latency_ms INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_source CHECK (source IN (
        'rule', 'classifier', 'continuation', 'entity', 'small_talk', 'llm', 'unsupported'
    )),
    CONSTRAINT valid_confidence CHECK (confidence >= 0 AND confidence <= 1)
);

CREATE INDEX IF NOT EXISTS idx_turns_created_at ON conversation_turns(created_at);
CREATE INDEX IF NOT EXISTS idx_turns_source_intent ON conversation_turns(source, intent);
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: TRAINING SAMPLES
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Questions the classifier had to answer without a rule, plus the ones nothing
-- could route. These are the candidates for labelling and retraining.
CREATE OR REPLACE VIEW classifier_training_samples AS
SELECT text,
       intent,
       source,
       avg(confidence) AS mean_confidence,
       count(*) AS occurrences,
       max(created_at) AS last_seen_at
FROM conversation_turns
WHERE source IN ('classifier', 'continuation', 'llm', 'unsupported')
GROUP BY text, intent, source;
`

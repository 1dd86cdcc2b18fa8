package store

// Schema is applied on every open; statements are idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS agents (
	id TEXT PRIMARY KEY,
	name TEXT UNIQUE NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	domain TEXT NOT NULL DEFAULT '',
	icon TEXT NOT NULL DEFAULT '',
	system_prompt TEXT NOT NULL DEFAULT '',
	uses_served INTEGER NOT NULL DEFAULT 0,
	avg_response_ms INTEGER NOT NULL DEFAULT 0,
	is_verified BOOLEAN NOT NULL DEFAULT 1,
	status TEXT NOT NULL DEFAULT 'online',
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS conversations (
	id TEXT PRIMARY KEY,
	user_id TEXT,
	title TEXT NOT NULL DEFAULT 'New Conversation',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	id TEXT PRIMARY KEY,
	conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
	sender TEXT NOT NULL,
	agent_id TEXT,
	agent_name TEXT,
	content TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, created_at);

CREATE TABLE IF NOT EXISTS transactions (
	id TEXT PRIMARY KEY,
	from_agent_id TEXT,
	to_agent_id TEXT,
	from_agent_name TEXT NOT NULL,
	to_agent_name TEXT NOT NULL,
	amount TEXT NOT NULL DEFAULT '0.004',
	tx_hash TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending',
	layer TEXT NOT NULL DEFAULT 'hydra',
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transactions_created ON transactions(created_at);

CREATE TABLE IF NOT EXISTS decision_logs (
	id TEXT PRIMARY KEY,
	agent_id TEXT,
	agent_name TEXT NOT NULL,
	action TEXT NOT NULL,
	details TEXT,
	tx_hash TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending',
	conversation_id TEXT,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_decision_logs_created ON decision_logs(created_at);
`

package store

// schemaStatements SQLite风格的DDL，由方言转换为目标数据库的语法
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id VARCHAR(64) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		created_at DATETIME NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS grocery_lists (
		id VARCHAR(64) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		owner_id VARCHAR(64) NOT NULL,
		created_at DATETIME NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS list_members (
		list_id VARCHAR(64) NOT NULL,
		user_id VARCHAR(64) NOT NULL,
		joined_at DATETIME NOT NULL,
		PRIMARY KEY (list_id, user_id)
	);`,
	`CREATE TABLE IF NOT EXISTS invitations (
		token VARCHAR(64) PRIMARY KEY,
		list_id VARCHAR(64) NOT NULL,
		from_name VARCHAR(255) NOT NULL,
		status VARCHAR(16) NOT NULL,
		expires_at DATETIME NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS app_state (
		state_key VARCHAR(64) PRIMARY KEY,
		state_value VARCHAR(1024) NOT NULL,
		updated_at DATETIME NOT NULL
	);`,
}

const (
	stateCurrentUser = "current_user_id"
	stateBanner      = "banner"
	stateSyncStarted = "sync_started_at"
	stateLastSync    = "last_sync_at"
)

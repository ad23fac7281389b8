package store

// SQL query constants for the database backends. Schema changes live in
// migrations/<dialect>.

// Postgres queries.
const (
	queryInsertSeen = `
		INSERT INTO seen_items (item_id, title, price, url, seen_at)
		VALUES (@item_id, @title, @price, @url, @seen_at)
		ON CONFLICT (item_id) DO NOTHING`

	querySelectSeenIDs = `SELECT item_id, seen_at FROM seen_items`

	querySelectSeen = `
		SELECT item_id, title, price, url, seen_at
		FROM seen_items
		ORDER BY seen_at, item_id`

	queryResetSeen = `TRUNCATE seen_items`
)

// SQLite queries.
const (
	sqliteInsertSeen = `
		INSERT INTO seen_items (item_id, title, price, url, seen_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(item_id) DO NOTHING`

	sqliteSelectSeen = `
		SELECT item_id, title, price, url, seen_at
		FROM seen_items
		ORDER BY seen_at, item_id`

	sqliteResetSeen = `DELETE FROM seen_items`
)

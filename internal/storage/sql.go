package storage

import (
	_ "embed"
)

//go:embed schema.sql
var initSchemaSQL string

// Indexes are created when the write connection is closed, so bulk inserts
// do not pay for index maintenance.
const initIndexesSQL = `
CREATE INDEX IF NOT EXISTS idx_samples_channel_idx ON samples (channel_id, idx);
CREATE INDEX IF NOT EXISTS idx_channels_log ON channels (log_id);`

const (
	insertLogSQL = `
INSERT INTO logs (name,
                  source,
                  created_at,
                  records)
VALUES (?, ?, ?, ?)`

	insertChannelSQL = `
INSERT INTO channels (log_id,
                      name,
                      samples)
VALUES (?, ?, ?)`

	insertSampleSQL = `
INSERT INTO samples (channel_id,
                     idx,
                     value)
VALUES `

	selectLogSQL = `
SELECT
    l.id,
    l.name,
    l.source,
    l.created_at,
    l.records,
    COUNT(c.id)
FROM logs l
    LEFT JOIN channels c ON c.log_id = l.id
WHERE
    l.id = ?
GROUP BY l.id`

	selectLogsSQL = `
SELECT
    l.id,
    l.name,
    l.source,
    l.created_at,
    l.records,
    COUNT(c.id)
FROM logs l
    LEFT JOIN channels c ON c.log_id = l.id
GROUP BY l.id
ORDER BY l.id`

	selectChannelsSQL = `
SELECT
    id,
    name
FROM channels
WHERE
    log_id = ?
ORDER BY name`

	// Filled with one placeholder per channel ID.
	selectChannelSamplesSQL = `
SELECT
    c.name,
    s.idx,
    s.value
FROM samples s
    JOIN channels c ON c.id = s.channel_id
WHERE
    s.channel_id IN (%s)
    AND s.idx BETWEEN ? AND ?
ORDER BY c.name, s.idx`
)

// File: utils/constants.go
package utils

import "time"

// HistoryCachePrefix is the prefix used for Redis conversation history windows.
const HistoryCachePrefix = "history:"

// HistoryCacheTTL is how long an idle conversation's history window stays cached.
const HistoryCacheTTL = 24 * time.Hour

// LockPrefix is the prefix used for Redis conversation lock keys.
const LockPrefix = "lock:conversation:"

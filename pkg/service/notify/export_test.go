package notify

// Export internal functions for testing
var (
	BuildRecordBlocks = buildRecordBlocks
	FallbackText      = fallbackText
)

package common

const (
	// MaxJSONRequestBody limits JSON request bodies for form endpoints.
	MaxJSONRequestBody = 1 << 20
	// DefaultMaxUploadBytes caps a supporting document when no limit is configured.
	DefaultMaxUploadBytes = 10 << 20
)

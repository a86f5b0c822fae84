// internal/app/system/limits/limits.go
package limits

// Request body size limits.
// These limits help prevent memory exhaustion from oversized requests.
const (
	// MaxJSONBody is the maximum size of any JSON request body. List
	// names, item text, and share identifiers are all short.
	MaxJSONBody = 64 << 10 // 64 KB
)

package miner

import (
	"context"
	"fmt"

	"github.com/mpatel/patminer/internal/github"
)

// PatternTypeAPIClient is the pattern-type name for API client mining.
const PatternTypeAPIClient = "api_client"

// APIClientMiner mines API client patterns: HTTP client wrappers,
// authentication handling, rate limiting, and retry logic.
type APIClientMiner struct {
	deps Deps
}

// NewAPIClientMiner creates an APIClientMiner.
func NewAPIClientMiner(deps Deps) *APIClientMiner {
	return &APIClientMiner{deps: deps}
}

// PatternType implements Miner.
func (m *APIClientMiner) PatternType() string { return PatternTypeAPIClient }

// FilePatterns implements Miner.
func (m *APIClientMiner) FilePatterns() []string {
	return []string{
		"*client.py",
		"*api*.py",
		"*client.go",
		"*client.ts",
	}
}

// Mine implements Miner.
func (m *APIClientMiner) Mine(ctx context.Context, repos []string) []github.Finding {
	return m.deps.run(ctx, repos, m, func(f github.Finding) (string, string) {
		return apiClientRecommendation(f), apiClientComponents()
	})
}

func apiClientRecommendation(f github.Finding) string {
	switch {
	case f.SimilarityScore >= HighPriorityThreshold:
		return fmt.Sprintf(`**High Priority**: Extract into shared API client library

Create package: `+"`common-api-client`"+` (or similar)

**Benefits**:
- Standardize HTTP client usage across %d projects
- Centralize authentication patterns
- Shared rate limiting and retry logic
- Consistent error handling
- Reduce ~200 lines of duplicate client code per project

**Suggested Structure**:
`+"```go"+`
client := apiclient.New(baseURL,
    apiclient.WithAPIKey(key),
    apiclient.WithRateLimit(60),
    apiclient.WithRetry(3),
)
resource, err := client.Get(ctx, "/resources/"+id)
`+"```", len(f.Repos))
	case f.SimilarityScore >= MediumPriorityThreshold:
		return fmt.Sprintf(`**Medium Priority**: Consider shared client base class

While client patterns are similar across %d repos, APIs differ.
Options:
1. Extract common base with auth/retry/rate-limiting
2. Create client interface/protocol for consistency
3. Document API client best practices`, len(f.Repos))
	default:
		return "Similarity score below extraction threshold"
	}
}

func apiClientComponents() string {
	return `**Authentication**
- API key handling
- Token refresh logic
- OAuth flow implementation

**Request Management**
- HTTP client configuration
- Request/response logging
- Timeout handling
- Connection pooling

**Resilience**
- Retry with exponential backoff
- Rate limiting
- Circuit breaker pattern
- Fallback strategies

**Error Handling**
- HTTP status code mapping
- Custom error types
- Error message formatting
- Debug logging`
}

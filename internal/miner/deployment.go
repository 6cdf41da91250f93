package miner

import (
	"context"
	"fmt"

	"github.com/mpatel/patminer/internal/github"
)

// PatternTypeDeployment is the pattern-type name for deployment mining.
const PatternTypeDeployment = "deployment"

// DeploymentMiner mines deployment patterns: cloud deployment scripts,
// build configurations, Dockerfiles, and Terraform.
type DeploymentMiner struct {
	deps Deps
}

// NewDeploymentMiner creates a DeploymentMiner.
func NewDeploymentMiner(deps Deps) *DeploymentMiner {
	return &DeploymentMiner{deps: deps}
}

// PatternType implements Miner.
func (m *DeploymentMiner) PatternType() string { return PatternTypeDeployment }

// FilePatterns implements Miner.
func (m *DeploymentMiner) FilePatterns() []string {
	return []string{
		"deploy*.sh",
		"cloudbuild.yaml",
		"Dockerfile",
		"*.tf",
		"docker-compose.yml",
	}
}

// Mine implements Miner.
func (m *DeploymentMiner) Mine(ctx context.Context, repos []string) []github.Finding {
	return m.deps.run(ctx, repos, m, func(f github.Finding) (string, string) {
		return deploymentRecommendation(f), deploymentComponents()
	})
}

// deploymentRecommendation derives the recommendation text from the
// similarity tier. The judge is instructed not to report findings below the
// extraction threshold, but that contract is not assumed to hold.
func deploymentRecommendation(f github.Finding) string {
	switch {
	case f.SimilarityScore >= HighPriorityThreshold:
		return fmt.Sprintf(`**High Priority**: Extract into shared deployment toolkit

Create package: `+"`gcp-deployment-toolkit`"+` (or similar)

**Benefits**:
- Standardize deployment across %d projects
- Reduce ~100 lines of duplicate bash code per project
- Centralize Secret Manager integration
- Single source of truth for Cloud Run configuration

**Suggested Structure**:
`+"```go"+`
deployer := gcpdeploy.NewCloudRunDeployer(gcpdeploy.Config{
    ProjectID:   "your-project",
    ServiceName: "your-service",
})
if err := deployer.Deploy(ctx); err != nil {
    log.Fatal(err)
}
`+"```", len(f.Repos))
	case f.SimilarityScore >= MediumPriorityThreshold:
		return fmt.Sprintf(`**Medium Priority**: Consider shared deployment library

While patterns are similar across %d repos, minor differences exist.
Options:
1. Extract common core and support configuration for differences
2. Create deployment template repo for copy/customize approach
3. Document best practices and standardize incrementally`, len(f.Repos))
	default:
		return "Similarity score below extraction threshold"
	}
}

// deploymentComponents is the static reusable-component checklist for the
// deployment pattern type; it is not derived from file contents.
func deploymentComponents() string {
	return `**Secret Management**
- Secret existence validation
- Secret creation with proper IAM
- Secret version management

**Cloud Run Deployment**
- Docker image build and push
- Cloud Run service configuration
- Environment variable injection
- Secret Manager integration
- Service URL retrieval

**Error Handling**
- GCP authentication checks
- Project ID validation
- Deployment verification
- Rollback capability`
}

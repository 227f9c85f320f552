package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/inquest-cli/internal/core/domain"
	"github.com/custodia-labs/inquest-cli/internal/core/ports/driving"
)

func successfulOutcome() *driving.ResearchOutcome {
	session := testSession("sess-1", "go scheduling", domain.StatusDone)
	return &driving.ResearchOutcome{
		Session:  &session,
		Rendered: []byte("# Research: go scheduling\n\nfindings\n"),
	}
}

func TestResearchCmd_PrintsReport(t *testing.T) {
	research := &mockResearchService{outcome: successfulOutcome()}
	withServices(t, Services{Research: research})

	stdout, stderr, err := execute(t, "research", "go scheduling")

	require.NoError(t, err)
	assert.Contains(t, stdout, "# Research: go scheduling")
	assert.Contains(t, stderr, "Session: sess-1")
	assert.Equal(t, "go scheduling", research.topic)
}

func TestResearchCmd_FlagsForwarded(t *testing.T) {
	research := &mockResearchService{outcome: successfulOutcome()}
	withServices(t, Services{Research: research})

	_, _, err := execute(t, "research", "go scheduling",
		"--max-sources", "5", "--email", "alex@example.com")

	require.NoError(t, err)
	assert.Equal(t, 5, research.opts.MaxSources)
	assert.Equal(t, []string{"alex@example.com"}, research.opts.Recipients)
}

func TestResearchCmd_WritesReportToFile(t *testing.T) {
	research := &mockResearchService{outcome: successfulOutcome()}
	withServices(t, Services{Research: research})

	path := filepath.Join(t.TempDir(), "report.md")
	stdout, _, err := execute(t, "research", "go scheduling", "--out", path)

	require.NoError(t, err)
	assert.Contains(t, stdout, "Report written to")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Research: go scheduling")
}

func TestResearchCmd_FailedSession(t *testing.T) {
	session := testSession("sess-1", "doomed", domain.StatusFailed)
	research := &mockResearchService{
		outcome: &driving.ResearchOutcome{Session: &session},
		err:     domain.ErrSessionFailed,
	}
	withServices(t, Services{Research: research})

	_, stderr, err := execute(t, "research", "doomed")

	assert.ErrorIs(t, err, domain.ErrSessionFailed)
	assert.Contains(t, stderr, "Session sess-1 failed")
}

func TestResearchCmd_RenderWarning(t *testing.T) {
	outcome := successfulOutcome()
	outcome.RenderError = domain.ErrRender
	research := &mockResearchService{outcome: outcome}
	withServices(t, Services{Research: research})

	stdout, stderr, err := execute(t, "research", "go scheduling")

	require.NoError(t, err)
	assert.Contains(t, stdout, "# Research: go scheduling")
	assert.Contains(t, stderr, "rendering failed")
}

func TestResearchCmd_DeliveryWarning(t *testing.T) {
	outcome := successfulOutcome()
	outcome.DeliveryError = domain.ErrDelivery
	research := &mockResearchService{outcome: outcome}
	withServices(t, Services{Research: research})

	_, stderr, err := execute(t, "research", "go scheduling", "--email", "alex@example.com")

	require.NoError(t, err)
	assert.Contains(t, stderr, "delivery failed")
}

func TestResearchCmd_RequiresService(t *testing.T) {
	withServices(t, Services{})

	_, _, err := execute(t, "research", "topic")
	assert.Error(t, err)
}

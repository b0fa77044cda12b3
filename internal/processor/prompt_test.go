package processor

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-extractor/internal/parser"
	"resume-extractor/internal/types"
)

func TestBuildPromptContext(t *testing.T) {
	info := types.ExtractedInfo{
		Text:              strings.Repeat("经", PromptExcerptRunes+100),
		Skills:            []string{"Go", "Docker"},
		JobTitle:          "Backend Engineer",
		YearsOfExperience: 7,
	}

	pc := BuildPromptContext(info)
	assert.Equal(t, []string{"Go", "Docker"}, pc.Skills)
	assert.NotNil(t, pc.Experience)
	assert.NotNil(t, pc.Education)
	assert.Equal(t, "Backend Engineer", pc.JobTitle)
	assert.Equal(t, 7, pc.YearsOfExperience)
	assert.Equal(t, PromptExcerptRunes, parser.RuneCount(pc.ResumeExcerpt))
}

func TestBuildPromptContext_Empty(t *testing.T) {
	pc := BuildPromptContext(types.EmptyExtractedInfo())
	assert.Empty(t, pc.ResumeExcerpt)
	assert.Equal(t, []string{}, pc.Skills)
}

func TestGetPromptContext_FromCandidate(t *testing.T) {
	env := newTestEnv(testConfig(), false)
	ctx := context.Background()

	res, err := env.svc.SubmitUpload(ctx, "jane.txt", "text/plain", []byte(sampleResume))
	require.NoError(t, err)

	pc, err := env.svc.GetPromptContext(ctx, res.CandidateID)
	require.NoError(t, err)
	assert.Equal(t, res.Info.Skills, pc.Skills)
	assert.Equal(t, sampleResume, pc.ResumeExcerpt)

	_, err = env.svc.GetPromptContext(ctx, "nope")
	assert.ErrorIs(t, err, ErrCandidateNotFound)
}

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"

	"resume-extractor/internal/types"
)

func TestStringsJSON(t *testing.T) {
	assert.JSONEq(t, `[]`, string(StringsToJSON(nil)))
	assert.JSONEq(t, `["Go","Docker"]`, string(StringsToJSON([]string{"Go", "Docker"})))

	assert.Equal(t, []string{}, JSONToStrings(nil))
	assert.Equal(t, []string{}, JSONToStrings(datatypes.JSON("null")))
	assert.Equal(t, []string{}, JSONToStrings(datatypes.JSON("{oops")))
	assert.Equal(t, []string{"a", "b"}, JSONToStrings(datatypes.JSON(`["a","b"]`)))
}

func TestBuildCandidate_New(t *testing.T) {
	info := &types.ExtractedInfo{
		Name:              "Jane Doe",
		Email:             "jane@acme.io",
		Text:              "raw text",
		Skills:            []string{"Docker"},
		YearsOfExperience: 6,
	}
	c := BuildCandidate(nil, info, "resume-1")

	assert.Equal(t, "Jane Doe", c.Name)
	assert.Equal(t, "jane@acme.io", c.Email)
	assert.Equal(t, "raw text", c.ResumeText)
	assert.Equal(t, "resume-1", c.SourceResumeID)
	assert.Equal(t, 6, c.YearsOfExperience)
	assert.Equal(t, []string{"Docker"}, c.SkillList())
	assert.Equal(t, []string{}, c.ExperienceList())
	assert.JSONEq(t, `[]`, string(c.Education))
}

func TestBuildCandidate_MergeKeepsExisting(t *testing.T) {
	existing := &Candidate{
		CandidateID:       "cand-1",
		Name:              "Jane Doe",
		Phone:             "(555) 123-4567",
		Company:           "Acme",
		YearsOfExperience: 4,
		Skills:            StringsToJSON([]string{"Go"}),
		Experience:        StringsToJSON([]string{"Backend engineer at Acme 2019 - 2023"}),
	}
	info := &types.ExtractedInfo{
		Email:  "jane@acme.io",
		Skills: []string{"Docker", "Kubernetes"},
	}
	c := BuildCandidate(existing, info, "resume-2")

	assert.Equal(t, "cand-1", c.CandidateID)
	assert.Equal(t, "Jane Doe", c.Name)
	assert.Equal(t, "(555) 123-4567", c.Phone)
	assert.Equal(t, "jane@acme.io", c.Email)
	assert.Equal(t, "Acme", c.Company)
	assert.Equal(t, 4, c.YearsOfExperience)
	assert.Equal(t, []string{"Docker", "Kubernetes"}, c.SkillList())
	assert.Equal(t, []string{"Backend engineer at Acme 2019 - 2023"}, c.ExperienceList())
	assert.Equal(t, "resume-2", c.SourceResumeID)

	// 原对象不被修改
	assert.Empty(t, existing.Email)
}

func TestBuildCandidate_NilInfo(t *testing.T) {
	existing := &Candidate{CandidateID: "cand-1"}
	c := BuildCandidate(existing, nil, "resume-1")
	assert.Equal(t, "cand-1", c.CandidateID)
	assert.Empty(t, c.SourceResumeID)
}

func TestTableNames(t *testing.T) {
	assert.Equal(t, "candidates", Candidate{}.TableName())
	assert.Equal(t, "resumes", Resume{}.TableName())
	assert.Equal(t, "outbox_messages", OutboxMessage{}.TableName())
}

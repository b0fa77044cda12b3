package extractor

import (
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-extractor/internal/types"
)

func fixedClock(year int) func() time.Time {
	return func() time.Time { return time.Date(year, time.June, 1, 0, 0, 0, 0, time.UTC) }
}

var digitsOnlyRe = regexp.MustCompile(`\D`)

// assertInvariants 对任意输入都必须成立的性质
func assertInvariants(t *testing.T, info types.ExtractedInfo) {
	t.Helper()
	assert.LessOrEqual(t, len(info.Skills), 20)
	assert.LessOrEqual(t, len(info.Experience), 5)
	assert.LessOrEqual(t, len(info.Education), 3)
	assert.GreaterOrEqual(t, info.YearsOfExperience, 0)
	assert.LessOrEqual(t, info.YearsOfExperience, 49)

	if info.Email != "" {
		assert.True(t, validEmail(info.Email), "邮箱不符合语法或命中占位域名: %s", info.Email)
		assert.Equal(t, strings.ToLower(info.Email), info.Email)
	}
	if info.Phone != "" {
		n := len(digitsOnlyRe.ReplaceAllString(info.Phone, ""))
		assert.True(t, n >= 10 && n <= 15, "电话位数越界: %s", info.Phone)
	}
	if info.Name != "" {
		words := strings.Fields(info.Name)
		assert.True(t, len(words) >= 2 && len(words) <= 4, "姓名单词数越界: %s", info.Name)
		assert.False(t, hasExcludedWord(info.Name), "姓名包含排除词: %s", info.Name)
	}
	for _, e := range info.Experience {
		n := len([]rune(e))
		assert.True(t, n >= 20 && n <= 200, "经历长度越界: %q", e)
	}
	for _, e := range info.Education {
		n := len([]rune(e))
		assert.True(t, n >= 10 && n <= 150, "教育长度越界: %q", e)
	}
	if n := len([]rune(info.Summary)); n != 0 {
		assert.True(t, n >= 50 && n <= 500, "摘要长度越界: %d", n)
	}
	if n := len([]rune(info.JobTitle)); n != 0 {
		assert.True(t, n >= 5 && n <= 50)
	}
	if n := len([]rune(info.Company)); n != 0 {
		assert.True(t, n >= 2 && n <= 50)
	}
}

func TestExtract_BasicContactBlock(t *testing.T) {
	engine := New(WithClock(fixedClock(2025)))
	text := "John Smith\njohn.smith@gmail.com\n(555) 123-4567\n5 years of experience in JavaScript and React."

	info := engine.Extract(text)

	assert.Equal(t, "John Smith", info.Name)
	assert.Equal(t, "john.smith@gmail.com", info.Email)
	assert.Equal(t, "(555) 123-4567", info.Phone)
	assert.Equal(t, []string{"Javascript", "React"}, info.Skills)
	assert.Equal(t, 5, info.YearsOfExperience)
	assert.Equal(t, text, info.Text, "原始文本应原样保留")
	assertInvariants(t, info)
}

func TestExtract_EmptyInput(t *testing.T) {
	engine := New()
	for _, text := range []string{"", "   ", "\n\t  \r\n"} {
		info := engine.Extract(text)
		assert.Equal(t, types.EmptyExtractedInfo(), info, "空输入应返回规范空记录: %q", text)
		assert.NotNil(t, info.Skills)
		assert.NotNil(t, info.Experience)
		assert.NotNil(t, info.Education)
	}
}

func TestExtract_RoleCompanyAndDateRange(t *testing.T) {
	engine := New(WithClock(fixedClock(2025)))
	info := engine.Extract("Senior Software Engineer at Acme Corp 2018-present")

	assert.Contains(t, info.JobTitle, "Senior Software Engineer")
	assert.Equal(t, "Acme Corp", info.Company)
	assert.Equal(t, 2025-2018, info.YearsOfExperience)
	assert.Empty(t, info.Name)
	assertInvariants(t, info)
}

func TestExtract_PlaceholderEmailBlocked(t *testing.T) {
	info := Extract("foo@example.com")
	assert.Empty(t, info.Email)
}

func TestExtract_TitleLineIsNotAName(t *testing.T) {
	info := Extract("Project Manager\nJane Doe\nObjective: ship useful software to people who need it.")

	assert.Equal(t, "Jane Doe", info.Name)
	assert.NotContains(t, info.Name, "Project")
	assert.NotContains(t, info.Name, "Manager")
	assert.Equal(t, "Project Manager", info.JobTitle)
}

func TestExtract_Deterministic(t *testing.T) {
	engine := New(WithClock(fixedClock(2030)))
	text := sampleResume
	first := engine.Extract(text)
	second := engine.Extract(text)
	assert.Equal(t, first, second)
}

// 引擎无共享可变状态，并发调用结果应一致
func TestExtract_ConcurrentCallers(t *testing.T) {
	engine := New(WithClock(fixedClock(2025)))
	want := engine.Extract(sampleResume)

	var wg sync.WaitGroup
	results := make([]types.ExtractedInfo, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = engine.Extract(sampleResume)
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

const sampleResume = `Priya Raman
priya.raman@fastmail.com | +1 415-555-0134 | San Francisco, CA

Professional Summary
Backend engineer with 8+ years of experience designing payment platforms, event pipelines and internal platform tooling.

Technical Skills
Python, Java, Docker, Kubernetes, PostgreSQL, AWS, GraphQL, Git

Work Experience
Senior Software Engineer at Stripe Inc 2019 - Present
Built ledger services handling millions of transactions per day.
Software Engineer, Globex Corporation, 2015 - 2019

Education
Bachelor of Science in Computer Science, Stanford University, 2015
`

func TestExtract_FullResume(t *testing.T) {
	engine := New(WithClock(fixedClock(2025)))
	info := engine.Extract(sampleResume)

	assert.Equal(t, "Priya Raman", info.Name)
	assert.Equal(t, "priya.raman@fastmail.com", info.Email)
	assert.Equal(t, "+1 (415) 555-0134", info.Phone)
	assert.Equal(t, "Senior Software Engineer", info.JobTitle)
	assert.Equal(t, "Stripe Inc", info.Company)
	assert.Equal(t, 10, info.YearsOfExperience, "2015 起算的区间应大于 8+ years")
	assert.True(t, strings.HasPrefix(info.Summary, "Backend engineer with 8+ years"), "summary: %q", info.Summary)

	for _, want := range []string{"Python", "Java", "Docker", "Kubernetes", "Postgresql", "Aws", "Graphql", "Git"} {
		assert.Contains(t, info.Skills, want)
	}
	assert.NotEmpty(t, info.Experience)
	assert.NotEmpty(t, info.Education)
	assertInvariants(t, info)
}

// 各种噪声输入都不能破坏输出形状
func TestExtract_InvariantsOnNoisyInput(t *testing.T) {
	inputs := []string{
		"\x00\x01\x02\xff\xfe garbage \x7f",
		strings.Repeat("a", 5000),
		strings.Repeat("1234567890 ", 200),
		strings.Repeat("Skills: javascript python java docker aws css html git sql c++ c# react vue angular\n", 30),
		strings.Repeat("Acme Systems 2001 - 2003\n", 50),
		"Name: X\nEmail: @@@\nPhone: +++",
		"9999 years of experience since 1900 - present",
		"résumé — Ünïcödé Nâme\nçontact: ünï@exämple.com",
	}
	engine := New(WithClock(fixedClock(2025)))
	for _, in := range inputs {
		require.NotPanics(t, func() { engine.Extract(in) })
		assertInvariants(t, engine.Extract(in))
	}
}

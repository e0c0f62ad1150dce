package fastgpt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractScore_RootFields(t *testing.T) {
	t.Parallel()
	score, analysis := ExtractScore([]byte(`{"score": 7, "analysis": "ok"}`))
	assert.Equal(t, 7.0, score)
	assert.Equal(t, "ok", analysis)
}

func TestExtractScore_FeedbackAlias(t *testing.T) {
	t.Parallel()
	score, analysis := ExtractScore([]byte(`{"score": 4.5, "feedback": "close"}`))
	assert.Equal(t, 4.5, score)
	assert.Equal(t, "close", analysis)
}

func TestExtractScore_NumericString(t *testing.T) {
	t.Parallel()
	score, analysis := ExtractScore([]byte(`{"score": "8", "analysis": "good"}`))
	assert.Equal(t, 8.0, score)
	assert.Equal(t, "good", analysis)
}

func TestExtractScore_NestedData(t *testing.T) {
	t.Parallel()
	score, analysis := ExtractScore([]byte(`{"data": {"score": 3, "analysis": "weak"}}`))
	assert.Equal(t, 3.0, score)
	assert.Equal(t, "weak", analysis)
}

func TestExtractScore_DataContentString(t *testing.T) {
	t.Parallel()
	score, analysis := ExtractScore([]byte(`{"data": {"content": "{\"score\":5,\"analysis\":\"x\"}"}}`))
	assert.Equal(t, 5.0, score)
	assert.Equal(t, "x", analysis)
}

func TestExtractScore_RootContentString(t *testing.T) {
	t.Parallel()
	score, analysis := ExtractScore([]byte(`{"content": "{\"score\":9,\"analysis\":\"strong\"}"}`))
	assert.Equal(t, 9.0, score)
	assert.Equal(t, "strong", analysis)
}

func TestExtractScore_ChatCompletionShape(t *testing.T) {
	t.Parallel()
	body := `{"choices":[{"message":{"role":"assistant","content":"{\"score\":6,\"analysis\":\"fair\"}"}}]}`
	score, analysis := ExtractScore([]byte(body))
	assert.Equal(t, 6.0, score)
	assert.Equal(t, "fair", analysis)
}

func TestExtractScore_Unrecognized(t *testing.T) {
	t.Parallel()
	score, analysis := ExtractScore([]byte(`{"message": "pong"}`))
	assert.Equal(t, 0.0, score)
	assert.Empty(t, analysis)
}

func TestExtractScore_NotJSON(t *testing.T) {
	t.Parallel()
	score, analysis := ExtractScore([]byte(`hello`))
	assert.Equal(t, 0.0, score)
	assert.Empty(t, analysis)
}

func TestExtractScore_NonNumericScoreIgnored(t *testing.T) {
	t.Parallel()
	score, analysis := ExtractScore([]byte(`{"score": "high", "analysis": "n/a"}`))
	assert.Equal(t, 0.0, score)
	assert.Empty(t, analysis)
}

func TestExtractContent_Shapes(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		body string
		want string
	}{
		{"root", `{"content": "q1"}`, "q1"},
		{"data", `{"data": {"content": "q2"}}`, "q2"},
		{"choices", `{"choices":[{"message":{"content":"q3"}}]}`, "q3"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ExtractContent([]byte(tc.body))
			assert.True(t, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestExtractContent_Missing(t *testing.T) {
	t.Parallel()
	_, ok := ExtractContent([]byte(`{"message": "pong"}`))
	assert.False(t, ok)
}

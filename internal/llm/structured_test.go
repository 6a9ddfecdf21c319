package llm

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type trendItem struct {
	Topic          string `json:"topic"`
	RelevanceScore int    `json:"relevanceScore"`
}

type trendEnvelope struct {
	Trends []trendItem `json:"trends"`
}

type scorePayload struct {
	Score  float64 `json:"score"`
	Advice string  `json:"advice"`
}

func TestExtractJSON_CleanObject(t *testing.T) {
	raw := `{"trends":[{"topic":"AI","relevanceScore":90}]}`
	result, err := ExtractJSON[trendEnvelope](raw, nil)
	require.NoError(t, err)
	require.Len(t, result.Trends, 1)
	assert.Equal(t, "AI", result.Trends[0].Topic)
	assert.Equal(t, 90, result.Trends[0].RelevanceScore)
}

func TestExtractJSON_TopLevelArray(t *testing.T) {
	raw := "Here are the trends:\n[{\"topic\":\"EX\",\"relevanceScore\":88},{\"topic\":\"DT\",\"relevanceScore\":95}]\nDone."
	result, err := ExtractJSON[[]trendItem](raw, nil)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "DT", result[1].Topic)
}

func TestExtractJSON_ObjectBeforeArray(t *testing.T) {
	raw := `{"score":0.5,"advice":"tighten [scope]"} [1,2]`
	result, err := ExtractJSON[scorePayload](raw, nil)
	require.NoError(t, err)
	assert.Equal(t, "tighten [scope]", result.Advice)
}

func TestExtractJSON_FencedJSON(t *testing.T) {
	raw := "```json\n{\"score\":0.88,\"advice\":\"ok\"}\n```"
	result, err := ExtractJSON[scorePayload](raw, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.88, result.Score)
}

func TestExtractJSON_CommentsAndLeadingDecimal(t *testing.T) {
	raw := "{\n  // model chatter\n  \"score\": .75,\n  \"advice\": \"see http://x\"\n}"
	result, err := ExtractJSON[scorePayload](raw, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.75, result.Score)
	assert.Equal(t, "see http://x", result.Advice)
}

func TestExtractJSON_NoJSON(t *testing.T) {
	_, err := ExtractJSON[scorePayload]("I cannot help with that.", nil)
	assert.ErrorIs(t, err, ErrInvalidOutput)
}

func TestExtractJSON_InvalidJSON(t *testing.T) {
	_, err := ExtractJSON[scorePayload](`{"score":0.5, broken}`, nil)
	assert.ErrorIs(t, err, ErrInvalidOutput)
}

func TestExtractJSON_ValidationFailure(t *testing.T) {
	validator := func(p scorePayload) error {
		if p.Score < 0 || p.Score > 1 {
			return fmt.Errorf("score must be in [0,1], got %f", p.Score)
		}
		return nil
	}
	_, err := ExtractJSON(`{"score":1.5}`, validator)
	assert.ErrorIs(t, err, ErrInvalidOutput)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestExtractJSON_BracketsInsideStrings(t *testing.T) {
	raw := `{"trends":[{"topic":"a ] b } c","relevanceScore":1}]}`
	result, err := ExtractJSON[trendEnvelope](raw, nil)
	require.NoError(t, err)
	assert.Equal(t, "a ] b } c", result.Trends[0].Topic)
}

func TestExtractJSON_BlockCommentWithBraces(t *testing.T) {
	raw := "{\"score\": /* was {0.4} */ 0.6, \"advice\": \"ok\"}"
	result, err := ExtractJSON[scorePayload](raw, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.6, result.Score)

	_, err = ExtractJSON[scorePayload](`{"score": /* unterminated`, nil)
	assert.ErrorIs(t, err, ErrInvalidOutput)
}

func TestExtractJSON_NegativeLeadingDecimal(t *testing.T) {
	result, err := ExtractJSON[scorePayload](`{"score": -.25}`, nil)
	require.NoError(t, err)
	assert.Equal(t, -0.25, result.Score)
}

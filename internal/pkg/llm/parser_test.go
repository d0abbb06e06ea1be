package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReply(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		structured  bool
		title       string
		explanation string
		quizLen     int
	}{
		{
			name:        "plain json",
			raw:         `{"title":"الكسور","explanation":"الكسر جزء من كل","quiz":[{"question":"ما هو الكسر؟","options":["أ","ب"],"answer":"أ"}]}`,
			structured:  true,
			title:       "الكسور",
			explanation: "الكسر جزء من كل",
			quizLen:     1,
		},
		{
			name:        "json code fence",
			raw:         "```json\n{\"title\":\"Verbs\",\"explanation\":\"A verb is an action word\",\"quiz\":[]}\n```",
			structured:  true,
			title:       "Verbs",
			explanation: "A verb is an action word",
		},
		{
			name:        "bare fence",
			raw:         "```\n{\"explanation\":\"x\"}\n```",
			structured:  true,
			explanation: "x",
		},
		{
			name:        "json inside prose",
			raw:         "هذا هو الرد:\n{\"title\":\"t\",\"explanation\":\"شرح\",\"quiz\":[]}\nبالتوفيق",
			structured:  true,
			title:       "t",
			explanation: "شرح",
		},
		{
			name:        "fence followed by prose with braces",
			raw:         "Here:\n```json\n{\"title\":\"t\",\"explanation\":\"e\",\"quiz\":[]}\n```\nHope {this} helps",
			structured:  true,
			title:       "t",
			explanation: "e",
		},
		{
			name:        "fenced non-json falls back to the whole reply",
			raw:         "Try this:\n```\nx = 1/2\n```",
			explanation: "Try this:\n```\nx = 1/2\n```",
		},
		{
			name:        "non-string scalars",
			raw:         `{"title":2024,"explanation":42,"quiz":"none"}`,
			structured:  true,
			title:       "2024",
			explanation: "42",
		},
		{
			name:        "not json",
			raw:         "  المعلومة غير موجودة في المنهج  ",
			explanation: "المعلومة غير موجودة في المنهج",
		},
		{
			name:        "json without explanation",
			raw:         `{"title":"only a title"}`,
			explanation: `{"title":"only a title"}`,
		},
		{
			name:        "broken json",
			raw:         `{"title": "t", "explanation": "cut off`,
			explanation: `{"title": "t", "explanation": "cut off`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ParseReply(tt.raw)
			assert.Equal(t, tt.structured, r.Structured)
			assert.Equal(t, tt.title, r.Title)
			assert.Equal(t, tt.explanation, r.Explanation)
			assert.Len(t, r.Quiz, tt.quizLen)
			assert.NotNil(t, r.Quiz)
		})
	}
}

func TestParseReplyQuizCleanup(t *testing.T) {
	raw := `{"explanation":"e","quiz":[
		{"question":"  ","options":["a"],"answer":"a"},
		{"question":"Q1","options":["a","b","c"],"answer":1},
		{"question":"Q2","options":["a","b"],"answer":" b "},
		{"question":"Q3","options":["a"],"answer":7},
		{"question":"Q4","options":["a"]}
	]}`

	r := ParseReply(raw)
	require.True(t, r.Structured)
	require.Len(t, r.Quiz, 4)
	assert.Equal(t, "b", r.Quiz[0].Answer)
	assert.Equal(t, "b", r.Quiz[1].Answer)
	assert.Equal(t, "7", r.Quiz[2].Answer)
	assert.Equal(t, "", r.Quiz[3].Answer)
}

func TestParseReplyNumericQuiz(t *testing.T) {
	raw := `{"title":"الكسور","explanation":"شرح الكسور","quiz":[
		{"question":"نص ربع كم؟","options":[1,2,0.5,3],"answer":1},
		{"question":"كم نص الواحد؟","options":[0.25,0.5,0.75],"answer":0.5},
		{"question":"الكسر أصغر من واحد؟","options":[true,false],"answer":0},
		{"question":"كم ربع في الواحد؟","options":[2,4,8],"answer":"4"}
	]}`

	r := ParseReply(raw)
	require.True(t, r.Structured)
	assert.Equal(t, "الكسور", r.Title)
	assert.Equal(t, "شرح الكسور", r.Explanation)
	require.Len(t, r.Quiz, 4)

	assert.Equal(t, []string{"1", "2", "0.5", "3"}, r.Quiz[0].Options)
	assert.Equal(t, "1", r.Quiz[0].Answer, "a number listed among the options is the option itself")
	assert.Equal(t, "0.5", r.Quiz[1].Answer)
	assert.Equal(t, []string{"true", "false"}, r.Quiz[2].Options)
	assert.Equal(t, "true", r.Quiz[2].Answer, "other numbers index into the options")
	assert.Equal(t, "4", r.Quiz[3].Answer)
}

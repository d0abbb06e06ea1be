package llm

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

var fencePattern = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*(.*?)\\s*```")

// QuizItem is one multiple-choice question
type QuizItem struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}

// Reply is a parsed model answer
type Reply struct {
	Title       string
	Explanation string
	Quiz        []QuizItem
	// Structured is false when the reply was not JSON and Explanation holds the raw text
	Structured bool
}

// Scalar fields are kept raw so numbers and booleans are accepted where text is expected.
type rawReply struct {
	Title       json.RawMessage `json:"title"`
	Explanation json.RawMessage `json:"explanation"`
	Quiz        json.RawMessage `json:"quiz"`
}

type rawQuizItem struct {
	Question json.RawMessage   `json:"question"`
	Options  []json.RawMessage `json:"options"`
	Answer   json.RawMessage   `json:"answer"`
}

// ParseReply extracts title, explanation and quiz from a model reply. It never fails: text that is not JSON becomes the explanation.
func ParseReply(raw string) Reply {
	text := strings.TrimSpace(raw)

	candidates := make([]string, 0, 2)
	if m := fencePattern.FindStringSubmatch(text); m != nil {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	}
	candidates = append(candidates, text)

	for _, c := range candidates {
		if r, ok := decodeReply(c); ok {
			return r
		}
		if start := strings.Index(c, "{"); start != -1 {
			if end := strings.LastIndex(c, "}"); end > start {
				if r, ok := decodeReply(c[start : end+1]); ok {
					return r
				}
			}
		}
	}

	return Reply{Explanation: text, Quiz: []QuizItem{}}
}

func decodeReply(text string) (Reply, bool) {
	var rr rawReply
	if err := json.Unmarshal([]byte(text), &rr); err != nil {
		return Reply{}, false
	}

	explanation := scalarText(rr.Explanation)
	if explanation == "" {
		return Reply{}, false
	}

	return Reply{
		Title:       scalarText(rr.Title),
		Explanation: explanation,
		Quiz:        decodeQuiz(rr.Quiz),
		Structured:  true,
	}, true
}

// decodeQuiz keeps the usable questions; a malformed quiz yields an empty one
func decodeQuiz(raw json.RawMessage) []QuizItem {
	var items []rawQuizItem
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &items); err != nil {
			items = nil
		}
	}

	quiz := make([]QuizItem, 0, len(items))
	for _, q := range items {
		question := scalarText(q.Question)
		if question == "" {
			continue
		}
		options := make([]string, 0, len(q.Options))
		for _, o := range q.Options {
			options = append(options, scalarText(o))
		}
		quiz = append(quiz, QuizItem{
			Question: question,
			Options:  options,
			Answer:   answerText(q.Answer, options),
		})
	}
	return quiz
}

// scalarText renders a JSON string, number or boolean as trimmed text
func scalarText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return strings.TrimSpace(string(raw))
	}

	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	default:
		return strings.TrimSpace(string(raw))
	}
}

// answerText accepts the answer as text or as an index into options.
// A number that is itself one of the options is taken as the option value.
func answerText(raw json.RawMessage, options []string) string {
	answer := scalarText(raw)
	if answer == "" || bytes.HasPrefix(bytes.TrimSpace(raw), []byte(`"`)) {
		return answer
	}

	for _, o := range options {
		if o == answer {
			return answer
		}
	}
	if n, err := strconv.Atoi(answer); err == nil && n >= 0 && n < len(options) {
		return options[n]
	}
	return answer
}

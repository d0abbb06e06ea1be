package llm

import (
	"fmt"
	"strings"
)

// NotInCurriculum is the answer the model must give when the question is outside the curriculum
const NotInCurriculum = "المعلومة غير موجودة في المنهج"

const defaultQuizSize = 3

const replyFormat = `{"title": "...", "explanation": "...", "quiz": [{"question": "...", "options": ["...", "...", "...", "..."], "answer": "..."}]}`

// Prompt is a rendered request for the model
type Prompt struct {
	System string
	User   string
	// StudyYear selects the assistant when the retrieval provider is used
	StudyYear string
}

// PromptInput is what a prompt is built from
type PromptInput struct {
	StudyYear     string
	StudyYearName string
	SubjectName   string
	English       bool
	Query         string
}

// PromptBuilder renders curriculum prompts
type PromptBuilder struct {
	QuizSize int
}

// NewPromptBuilder creates a builder asking for quizSize questions
func NewPromptBuilder(quizSize int) *PromptBuilder {
	if quizSize <= 0 {
		quizSize = defaultQuizSize
	}
	return &PromptBuilder{QuizSize: quizSize}
}

// Build renders the system and user messages. English subjects get an English explanation with Arabic glosses.
func (b *PromptBuilder) Build(in PromptInput) Prompt {
	quizSize := b.QuizSize
	if quizSize <= 0 {
		quizSize = defaultQuizSize
	}

	query := strings.TrimSpace(in.Query)
	if in.English {
		return Prompt{
			System:    englishSystemPrompt(in, quizSize),
			User:      "Question: " + query,
			StudyYear: in.StudyYear,
		}
	}

	return Prompt{
		System:    arabicSystemPrompt(in, quizSize),
		User:      "السؤال: " + query,
		StudyYear: in.StudyYear,
	}
}

func arabicSystemPrompt(in PromptInput, quizSize int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "أنت مدرس ليبي تشرح المنهج الليبي فقط لطالب في %s.\n", in.StudyYearName)
	fmt.Fprintf(&sb, "المادة: %s.\n", in.SubjectName)
	sb.WriteString("اشرح باللهجة الليبية البيضاء بأسلوب بسيط وخطوة بخطوة مع أمثلة من المنهج.\n")
	fmt.Fprintf(&sb, "إذا لم توجد المعلومة في المنهج قل: \"%s\".\n", NotInCurriculum)
	fmt.Fprintf(&sb, "بعد الشرح اكتب اختبارا قصيرا من %d أسئلة اختيار من متعدد، لكل سؤال أربعة خيارات وإجابة صحيحة واحدة.\n", quizSize)
	sb.WriteString("أجب بصيغة JSON فقط بدون أي نص إضافي وبالشكل التالي:\n")
	sb.WriteString(replyFormat)
	return sb.String()
}

func englishSystemPrompt(in PromptInput, quizSize int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are a Libyan teacher explaining the %s subject of the Libyan curriculum to a student in %s.\n", in.SubjectName, in.StudyYearName)
	sb.WriteString("Explain in clear, simple English. After every key word or grammar term add its Arabic meaning in brackets.\n")
	fmt.Fprintf(&sb, "If the answer is not in the curriculum, say: \"%s\".\n", NotInCurriculum)
	fmt.Fprintf(&sb, "Then write a short quiz of %d multiple-choice questions in English, each with four options and one correct answer.\n", quizSize)
	sb.WriteString("Reply with JSON only, no extra text, in this shape:\n")
	sb.WriteString(replyFormat)
	return sb.String()
}

package generators

import (
	"fmt"
	"strings"

	"vidqa/internal/models"
)

// Apology is returned verbatim when nothing relevant was retrieved.
const Apology = "I apologize, but the transcript doesn't contain information about that."

const answerPromptTemplate = `You answer questions about a video using only excerpts from its transcript.

Video title: %s

Transcript excerpts:
%s

Question: %s

Instructions:
1. Answer strictly from the excerpts above. Do not add outside facts or assumptions.
2. When an excerpt carries timestamps like [MM:SS], cite them for the moments you rely on.
3. If the excerpts do not hold enough information, say clearly what is missing instead of guessing.
4. Reply in the same language as the question.
5. If none of the excerpts is relevant, reply exactly: "%s"
6. Keep the answer clear and well structured; use bullet points where they help.

Answer:`

const summaryPromptTemplate = `You are an expert at summarizing videos.

Video title: %s

Transcript:
%s

Instructions:
1. Write a concise, well-structured summary of about %d words.
2. Begin with a one-sentence overview that names the video title.
3. Summarize 3-5 key points or topics.
4. Include important conclusions or takeaways.
5. If the transcript has timestamps ([MM:SS]), include the most important ones.

Summary:`

const quizPromptTemplate = `You are an expert educator. Write a multiple-choice quiz from the video transcript below.

Video title: %s

Transcript:
%s

Instructions:
1. Write exactly %d questions that test understanding of key concepts, from basic recall to critical thinking.
2. Each question has exactly 4 distinct options and exactly one correct answer.
3. "answer" must be the full text of the correct option, copied exactly.
4. Output ONLY a JSON object with this structure and nothing before or after it:
{"quiz": [{"question": "Question text", "options": ["Option 1", "Option 2", "Option 3", "Option 4"], "answer": "Option 1"}]}`

func BuildAnswerPrompt(title, question string, chunks []models.ScoredChunk) string {
	blocks := make([]string, 0, len(chunks))
	for i, c := range chunks {
		blocks = append(blocks, fmt.Sprintf("Context %d: %s", i+1, strings.TrimSpace(c.Text)))
	}
	return fmt.Sprintf(answerPromptTemplate, displayTitle(title), strings.Join(blocks, "\n\n"), strings.TrimSpace(question), Apology)
}

func BuildSummaryPrompt(title, transcript string, words int) string {
	return fmt.Sprintf(summaryPromptTemplate, displayTitle(title), transcript, words)
}

func BuildQuizPrompt(title, transcript string, size int) string {
	return fmt.Sprintf(quizPromptTemplate, displayTitle(title), transcript, size)
}

func displayTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return "Unknown Title"
	}
	return title
}

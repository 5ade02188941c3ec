package models

const (
	ContextSeparator = "\n---\n"

	// QuizInstructionPrefix is prepended to every user prompt before it reaches the chain.
	QuizInstructionPrefix = "Generate a quiz based on the following instructions. " +
		"Do NOT include any answers. Just output clear questions.\n\n"

	SystemPrompt = "You are a teaching assistant that writes quizzes from study notes. " +
		"Use only the provided context. Produce questions only: never include answers, " +
		"answer keys, hints or explanations."

	SummaryHumanPrefix = "Human"
	SummaryAIPrefix    = "AI"
)

var (
	QuestionPromptTemplate = `<context>
%s
</context>
%s
`

	SummaryPromptTemplate = `Progressively summarize the lines of conversation provided, adding onto the previous summary and returning a new summary.

Current summary:
%s

New lines of conversation:
%s

New summary:`

	SessionSummaryPrefix = "Summary of the conversation so far:\n"
)

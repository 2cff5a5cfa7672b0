package prompts

import (
	_ "embed"
	"fmt"
	"strings"
)

//go:embed commit_reviewer.md
var commitReviewerPrompt string

//go:embed commit_analysis.md
var commitAnalysisPromptTemplate string

//go:embed commit_message.md
var commitMessagePrompt string

// CommitReviewerSystemPrompt is the persona sent as the system message of
// every analysis request.
func CommitReviewerSystemPrompt() string {
	return strings.TrimSpace(commitReviewerPrompt)
}

// BuildCommitAnalysisPrompt asks for an analysis of the given dossier.
func BuildCommitAnalysisPrompt(dossier string) string {
	return fmt.Sprintf(strings.TrimSpace(commitAnalysisPromptTemplate), dossier)
}

// CommitMessagePrompt asks for the preceding analysis condensed to one line.
func CommitMessagePrompt() string {
	return strings.TrimSpace(commitMessagePrompt)
}

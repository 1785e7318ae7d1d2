package app

import (
	"fmt"

	"fanfirst-engagement-service/internal/domain"
)

// fallbackQuestions is the local set used whenever generation fails. It is
// deterministic: the first count templates, in order.
func fallbackQuestions(artistName string, count int) []domain.Question {
	templates := []domain.Question{
		{
			Prompt:        fmt.Sprintf("What year did %s release their debut album?", artistName),
			Type:          domain.QuestionMultipleChoice,
			Options:       []string{"2015", "2016", "2017", "2018"},
			CorrectAnswer: "2016",
			Difficulty:    "medium",
		},
		{
			Prompt:        `Complete the lyric: "I've been _____ all night"`,
			Type:          domain.QuestionFillBlank,
			Options:       []string{"running", "dancing", "thinking", "waiting"},
			CorrectAnswer: "dancing",
			Difficulty:    "easy",
		},
		{
			Prompt:        fmt.Sprintf("Which city hosted %s's largest concert to date?", artistName),
			Type:          domain.QuestionMultipleChoice,
			Options:       []string{"New York", "Los Angeles", "London", "Tokyo"},
			CorrectAnswer: "Los Angeles",
			Difficulty:    "hard",
		},
		{
			Prompt:        "Arrange these albums in release order (earliest to latest):",
			Type:          domain.QuestionOrder,
			Options:       []string{"Album One", "Album Two", "Album Three", "Album Four"},
			CorrectAnswer: "Album One,Album Two,Album Three,Album Four",
			Difficulty:    "medium",
		},
		{
			Prompt:        fmt.Sprintf("What is %s's real first name?", artistName),
			Type:          domain.QuestionMultipleChoice,
			Options:       []string{"Michael", "James", "David", "Robert"},
			CorrectAnswer: "Michael",
			Difficulty:    "medium",
		},
		{
			Prompt:        "Which song features the collaboration with the most artists?",
			Type:          domain.QuestionMultipleChoice,
			Options:       []string{"Track A", "Track B", "Track C", "Track D"},
			CorrectAnswer: "Track B",
			Difficulty:    "hard",
		},
		{
			Prompt:        fmt.Sprintf("What genre best describes %s's earlier work?", artistName),
			Type:          domain.QuestionMultipleChoice,
			Options:       []string{"Hip-Hop", "Pop", "R&B", "Rock"},
			CorrectAnswer: "Hip-Hop",
			Difficulty:    "easy",
		},
		{
			Prompt:        fmt.Sprintf("Which award show featured %s's most iconic performance?", artistName),
			Type:          domain.QuestionMultipleChoice,
			Options:       []string{"VMAs", "Grammys", "BET Awards", "AMAs"},
			CorrectAnswer: "VMAs",
			Difficulty:    "medium",
		},
		{
			Prompt:        fmt.Sprintf("How many studio albums has %s released?", artistName),
			Type:          domain.QuestionMultipleChoice,
			Options:       []string{"3", "4", "5", "6"},
			CorrectAnswer: "4",
			Difficulty:    "medium",
		},
		{
			Prompt:        fmt.Sprintf("Which lyric captures %s's artistic vision best? (Fan opinion)", artistName),
			Type:          domain.QuestionCreative,
			Options:       []string{`"Dreams are worth chasing"`, `"The night is young"`, `"We rise together"`, `"Against all odds"`},
			CorrectAnswer: `"We rise together"`,
			Difficulty:    "medium",
		},
	}
	if count < len(templates) {
		templates = templates[:count]
	}
	return templates
}

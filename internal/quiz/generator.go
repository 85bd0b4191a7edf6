package quiz

import (
	"fmt"

	"studydesk/internal/model"
)

const (
	mcqSnippetLen   = 20
	yesNoSnippetLen = 30
)

var mcqDistractors = []string{
	"Something completely different",
	"Not related to the text",
	"Opposite meaning",
}

// Generate builds the quiz batch for one document from its segmented
// sentences: multiple choice from sentences 0-1, true/false from 2-3 and
// one yes/no from sentence 4. Fewer sentences produce a smaller batch;
// an empty batch is valid. The output depends only on the input order.
func Generate(documentID uint, sentences []string) []model.Question {
	var questions []model.Question

	for i := 0; i < 2 && i < len(sentences); i++ {
		s := sentences[i]
		q := model.Question{
			DocumentID:    documentID,
			Question:      fmt.Sprintf("Based on the text: \"%s...\", what is the main idea?", snippet(s, mcqSnippetLen)),
			CorrectAnswer: s,
			Type:          model.QuestionTypeMCQ,
			Explanation:   strPtr("This sentence is directly from the text."),
		}
		q.SetOptions(append([]string{s}, mcqDistractors...))
		questions = append(questions, q)
	}

	for i := 2; i < 4 && i < len(sentences); i++ {
		s := sentences[i]
		q := model.Question{
			DocumentID:    documentID,
			Question:      "True or False: " + s,
			CorrectAnswer: "True",
			Type:          model.QuestionTypeTrueFalse,
			Explanation:   strPtr("This statement appears in the text."),
		}
		// Every extracted sentence is presented as a true statement.
		q.SetOptions([]string{"True", "False"})
		questions = append(questions, q)
	}

	if len(sentences) > 4 {
		s := sentences[4]
		q := model.Question{
			DocumentID:    documentID,
			Question:      fmt.Sprintf("Does the text mention: \"%s...\"?", snippet(s, yesNoSnippetLen)),
			CorrectAnswer: "Yes",
			Type:          model.QuestionTypeYesNo,
			Explanation:   strPtr("Yes, this is mentioned in the text."),
		}
		q.SetOptions([]string{"Yes", "No"})
		questions = append(questions, q)
	}

	return questions
}

func snippet(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func strPtr(s string) *string {
	return &s
}

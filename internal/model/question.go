package model

import "encoding/json"

const (
	QuestionTypeMCQ       = "mcq"
	QuestionTypeTrueFalse = "true_false"
	QuestionTypeYesNo     = "yes_no"
)

// Question is one generated quiz item. Options is stored as a JSON array of
// strings for portability across databases.
type Question struct {
	ID            uint    `gorm:"primaryKey" json:"id"`
	DocumentID    uint    `gorm:"not null;index" json:"document_id"`
	Question      string  `gorm:"type:text;not null" json:"question"`
	Options       string  `gorm:"type:text" json:"-"` // JSON array of strings
	CorrectAnswer string  `gorm:"type:text;not null" json:"correct_answer"`
	Type          string  `gorm:"size:16;not null" json:"type"`
	Explanation   *string `gorm:"type:text" json:"explanation"`
}

// OptionList returns the parsed options; nil on parse error.
func (q *Question) OptionList() []string {
	if q.Options == "" {
		return nil
	}
	var opts []string
	_ = json.Unmarshal([]byte(q.Options), &opts)
	return opts
}

// SetOptions stores the options as JSON.
func (q *Question) SetOptions(opts []string) {
	if len(opts) == 0 {
		q.Options = "[]"
		return
	}
	b, _ := json.Marshal(opts)
	q.Options = string(b)
}

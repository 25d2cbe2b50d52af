package model

import "time"

type Mistake struct {
	Question  string    `json:"question"`
	Timestamp time.Time `json:"timestamp"`
}

// Progress 累积词汇与错题，键为 progress:<userId>
type Progress struct {
	WordsLearned     []string  `json:"wordsLearned"`
	Mistakes         []Mistake `json:"mistakes"`
	CompletedLessons []string  `json:"completedLessons"`
}

// NewProgress 返回空进度，切片非 nil 以便序列化为 []
func NewProgress() *Progress {
	return &Progress{
		WordsLearned:     []string{},
		Mistakes:         []Mistake{},
		CompletedLessons: []string{},
	}
}

func (p *Progress) HasWord(word string) bool {
	for _, w := range p.WordsLearned {
		if w == word {
			return true
		}
	}
	return false
}

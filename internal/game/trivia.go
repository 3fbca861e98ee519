package game

import (
	"context"
	"fmt"
)

// Question is one trivia prompt and its accepted answer.
type Question struct {
	Topic  string   `yaml:"-"`
	Prompt string   `yaml:"question"`
	Answer string   `yaml:"answer"`
	Tags   []string `yaml:"tags,omitempty"`
}

// Key identifies the question within a game.
func (q Question) Key() string {
	return q.Prompt
}

// Trivia is the question-and-answer round variant.
type Trivia struct {
	topic     string
	questions []Question
}

// NewTrivia creates a trivia variant over questions from topic.
func NewTrivia(topic string, questions []Question) *Trivia {
	return &Trivia{
		topic:     topic,
		questions: questions,
	}
}

func (t *Trivia) Name() string { return "Trivia" }

func (t *Trivia) Setup(context.Context) ([]Item, error) {
	items := make([]Item, len(t.questions))
	for i, q := range t.questions {
		items[i] = q
	}
	return items, nil
}

func (t *Trivia) Opening(roster Roster) []string {
	return []string{fmt.Sprintf("Trivia game started with topic: %s! Players: %s", t.topic, roster.Handles())}
}

func (t *Trivia) Prepare(context.Context, Item) error { return nil }

func (t *Trivia) Prompt(round int, item Item) []string {
	return []string{fmt.Sprintf("Question %d: %s", round, item.(Question).Prompt)}
}

func (t *Trivia) Open(item Item) Judge {
	return triviaJudge{answer: NormalizeAnswer(item.(Question).Answer)}
}

func (t *Trivia) Reveal(item Item) string {
	return fmt.Sprintf("The correct answer was: %s", item.(Question).Answer)
}

func (t *Trivia) Conclude(context.Context, Item) {}

func (t *Trivia) Between() string { return "" }

func (t *Trivia) Exhausted() string { return "All questions have been asked! The game is over." }

func (t *Trivia) Ended() string { return "Trivia game has been ended prematurely." }

func (t *Trivia) Shutdown(context.Context) {}

type triviaJudge struct {
	answer string
}

func (j triviaJudge) Judge(p Participant, guess string) Verdict {
	if NormalizeAnswer(guess) != j.answer {
		return Verdict{}
	}
	return Verdict{
		Points:        1,
		Announcements: []string{fmt.Sprintf("%s answered correctly and earns a point!", p)},
		Resolved:      true,
	}
}

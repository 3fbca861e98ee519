package partybot

import (
	"bytes"
	"testing"

	"partybot/internal/game"
)

func TestEmbeddedQuestions(t *testing.T) {
	bank, err := game.ParseQuestions(bytes.NewReader(QuestionsYAML))
	if err != nil {
		t.Fatalf("embedded questions do not parse: %v", err)
	}

	cs, err := bank.Topic("cs")
	if err != nil {
		t.Fatalf("expected a cs topic: %v", err)
	}
	if cs[0].Answer != "Python" || cs[1].Answer != "Java" {
		t.Errorf("unexpected first cs questions: %+v", cs[:2])
	}

	all, _ := bank.Topic(game.AllTopics)
	total := 0
	for _, topic := range bank.Topics() {
		if topic == game.AllTopics {
			continue
		}
		questions, _ := bank.Topic(topic)
		total += len(questions)
	}
	if len(all) != total {
		t.Errorf("all_topics has %d questions, want %d", len(all), total)
	}
}

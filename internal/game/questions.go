package game

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// AllTopics names the pool holding every question of every topic.
const AllTopics = "all_topics"

type questionFile struct {
	Topics []struct {
		Name      string     `yaml:"name"`
		Questions []Question `yaml:"questions"`
	} `yaml:"topics"`
}

// QuestionBank holds the trivia pools by topic. It is read-only after
// loading.
type QuestionBank struct {
	topics map[string][]Question
	order  []string
}

// ParseQuestions decodes a YAML question file and builds the all-topics
// pool.
func ParseQuestions(r io.Reader) (*QuestionBank, error) {
	var file questionFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to decode questions: %w", err)
	}

	bank := &QuestionBank{topics: make(map[string][]Question)}
	var all []Question
	for _, topic := range file.Topics {
		name := strings.TrimSpace(topic.Name)
		if name == "" || name == AllTopics {
			return nil, fmt.Errorf("invalid topic name %q", topic.Name)
		}
		if _, exists := bank.topics[name]; exists {
			return nil, fmt.Errorf("duplicate topic %q", name)
		}

		questions := make([]Question, 0, len(topic.Questions))
		for _, q := range topic.Questions {
			if strings.TrimSpace(q.Prompt) == "" || strings.TrimSpace(q.Answer) == "" {
				return nil, fmt.Errorf("topic %q has a question without prompt or answer", name)
			}
			q.Topic = name
			questions = append(questions, q)
		}
		bank.topics[name] = questions
		bank.order = append(bank.order, name)
		all = append(all, questions...)
	}

	bank.topics[AllTopics] = all
	bank.order = append(bank.order, AllTopics)
	return bank, nil
}

// LoadQuestions reads a question file from disk.
func LoadQuestions(path string) (*QuestionBank, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open questions file: %w", err)
	}
	defer f.Close()

	return ParseQuestions(f)
}

// Topic returns the questions of one topic.
func (b *QuestionBank) Topic(name string) ([]Question, error) {
	questions, ok := b.topics[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s. Available topics are: %s", ErrUnknownTopic, name, strings.Join(b.order, ", "))
	}
	return slices.Clone(questions), nil
}

// Topics lists the topic names, all_topics last.
func (b *QuestionBank) Topics() []string {
	return slices.Clone(b.order)
}

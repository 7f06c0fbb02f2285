package prompt

import (
	"context"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Scripted replays prepared answers per question key, in order
type Scripted struct {
	mu      sync.Mutex
	answers map[string][]string
	// Asked records every question in the order it was asked
	Asked []Question
}

// NewScripted creates an input from answers keyed by question key
func NewScripted(answers map[string][]string) *Scripted {
	copied := make(map[string][]string, len(answers))
	for k, v := range answers {
		copied[k] = append([]string(nil), v...)
	}
	return &Scripted{answers: copied}
}

func (s *Scripted) Ask(ctx context.Context, q Question) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.Asked = append(s.Asked, q)

	queue := s.answers[q.Key]
	if len(queue) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNoAnswer, q.Key)
	}
	s.answers[q.Key] = queue[1:]
	return queue[0], nil
}

// answerList accepts either a single scalar or a sequence of scalars
type answerList []string

func (a *answerList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*a = answerList{node.Value}
		return nil
	case yaml.SequenceNode:
		var values []string
		if err := node.Decode(&values); err != nil {
			return err
		}
		*a = values
		return nil
	default:
		return fmt.Errorf("line %d: answer must be a value or a list of values", node.Line)
	}
}

// ParseAnswers reads an answers document such as
//
//	mode: 2
//	week: 10
//	confirm: y
//
// A key may hold a list, consumed one entry per question.
func ParseAnswers(data []byte) (*Scripted, error) {
	var doc map[string]answerList
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse answers: %w", err)
	}

	answers := make(map[string][]string, len(doc))
	for k, v := range doc {
		answers[k] = v
	}
	return NewScripted(answers), nil
}

// LoadAnswersFile reads answers from a YAML file
func LoadAnswersFile(path string) (*Scripted, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read answers file: %w", err)
	}
	return ParseAnswers(data)
}

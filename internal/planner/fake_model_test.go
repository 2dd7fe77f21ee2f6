package planner

import (
	"context"
	"errors"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

type reply struct {
	content string
	err     error
	usage   *schema.TokenUsage
}

// scriptedModel answers with replies in order; the last reply repeats.
type scriptedModel struct {
	mu      sync.Mutex
	replies []reply
	prompts []string
}

func (m *scriptedModel) Generate(_ context.Context, in []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, in[len(in)-1].Content)
	if len(m.replies) == 0 {
		return nil, errors.New("no scripted reply")
	}
	r := m.replies[0]
	if len(m.replies) > 1 {
		m.replies = m.replies[1:]
	}
	if r.err != nil {
		return nil, r.err
	}
	msg := &schema.Message{Role: schema.Assistant, Content: r.content}
	if r.usage != nil {
		msg.ResponseMeta = &schema.ResponseMeta{Usage: r.usage}
	}
	return msg, nil
}

func (m *scriptedModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("streaming not supported")
}

func (m *scriptedModel) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

package nlu

import (
	"context"
	"fmt"

	"github.com/yungbote/barista-backend/internal/modules/ordering/steps"
	"github.com/yungbote/barista-backend/internal/platform/logger"
	"github.com/yungbote/barista-backend/internal/platform/openai"
)

// OpenAI answers turns through the Responses API with a strict json_schema.
type OpenAI struct {
	log    *logger.Logger
	client openai.Client
}

func NewOpenAI(log *logger.Logger, client openai.Client) (*OpenAI, error) {
	if log == nil || client == nil {
		return nil, fmt.Errorf("openai nlu: missing deps")
	}
	return &OpenAI{log: log.With("service", "OpenAINLU"), client: client}, nil
}

func (o *OpenAI) GenerateResponse(ctx context.Context, in steps.NLUInput) (steps.NLUOutput, error) {
	text, err := o.client.GenerateJSON(ctx, SystemPrompt(), UserPrompt(in), SchemaName, Schema())
	if err != nil {
		return steps.NLUOutput{}, err
	}
	return o.decode(text)
}

func (o *OpenAI) Stream(ctx context.Context, in steps.NLUInput, onChunk func(string)) (steps.NLUOutput, error) {
	rs := newReplyStream(onChunk)
	text, err := o.client.StreamJSON(ctx, SystemPrompt(), UserPrompt(in), SchemaName, Schema(), rs.Write)
	if err != nil {
		return steps.NLUOutput{}, err
	}
	return o.decode(text)
}

func (o *OpenAI) decode(text string) (steps.NLUOutput, error) {
	out, err := Decode(text)
	if err != nil {
		o.log.Warn("model response did not decode", "model", o.client.Model(), "raw", text, "error", err)
		return steps.NLUOutput{}, err
	}
	return out, nil
}

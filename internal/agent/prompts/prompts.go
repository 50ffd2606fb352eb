// Package prompts renders the embedded system prompt templates through the
// Eino prompt component so prompt callbacks fire on every render.
package prompts

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/deep-ag/copilot/internal/agent/model"
)

//go:embed template/intent_prompt.txt
var intentSystemPrompt string

//go:embed template/response_prompt.txt
var responseSystemPrompt string

// RenderIntentSystem returns the intent-extraction system prompt. The
// template is static; it is still routed through the prompt component via a
// messages placeholder so callbacks observe it.
func RenderIntentSystem(ctx context.Context) (string, error) {
	tpl := prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("system_messages", false),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"system_messages": []*schema.Message{schema.SystemMessage(intentSystemPrompt)},
	})
	if err != nil {
		return "", fmt.Errorf("intent prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("intent prompt render: empty result")
	}
	return msgs[0].Content, nil
}

// RenderResponseSystem renders the advisory system prompt with the configured
// assistant and region names.
func RenderResponseSystem(ctx context.Context, cfg model.PromptConfig) (string, error) {
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(responseSystemPrompt),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"AssistantName": cfg.AssistantName,
		"RegionName":    cfg.RegionName,
	})
	if err != nil {
		return "", fmt.Errorf("response prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("response prompt render: empty result")
	}
	return msgs[0].Content, nil
}

package slackbot

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"

	"github.com/tinyland-inc/ethicall/pkg/config"
)

const repliesPageSize = 100

// SlackPlatform implements Platform on top of the Slack Web API.
type SlackPlatform struct {
	api *slack.Client
}

func NewSlackPlatform(api *slack.Client) *SlackPlatform {
	return &SlackPlatform{api: api}
}

// Identity holds the ids the bot posts under.
type Identity struct {
	UserID string
	BotID  string
	TeamID string
}

// Identify calls auth.test for the bot token.
func (p *SlackPlatform) Identify(ctx context.Context) (Identity, error) {
	resp, err := p.api.AuthTestContext(ctx)
	if err != nil {
		return Identity{}, fmt.Errorf("auth.test: %w", err)
	}
	return Identity{UserID: resp.UserID, BotID: resp.BotID, TeamID: resp.TeamID}, nil
}

func (p *SlackPlatform) PostMessage(ctx context.Context, channel, threadTS, text string) error {
	opts := []slack.MsgOption{slack.MsgOptionText(text, false)}
	if threadTS != "" {
		opts = append(opts, slack.MsgOptionTS(threadTS))
	}
	if _, _, err := p.api.PostMessageContext(ctx, channel, opts...); err != nil {
		return fmt.Errorf("chat.postMessage: %w", err)
	}
	return nil
}

func (p *SlackPlatform) ThreadMessages(ctx context.Context, channel, threadTS string) ([]ThreadMessage, error) {
	var out []ThreadMessage
	cursor := ""
	for {
		msgs, hasMore, next, err := p.api.GetConversationRepliesContext(ctx, &slack.GetConversationRepliesParameters{
			ChannelID: channel,
			Timestamp: threadTS,
			Cursor:    cursor,
			Limit:     repliesPageSize,
		})
		if err != nil {
			return nil, fmt.Errorf("conversations.replies: %w", err)
		}
		for _, m := range msgs {
			out = append(out, ThreadMessage{
				User:  m.User,
				BotID: m.BotID,
				Text:  m.Text,
				TS:    m.Timestamp,
			})
		}
		if !hasMore || next == "" {
			return out, nil
		}
		cursor = next
	}
}

func (p *SlackPlatform) SetSuggestedPrompts(
	ctx context.Context,
	channel, threadTS, title string,
	prompts []config.SuggestedPrompt,
) error {
	params := slack.AssistantThreadsSetSuggestedPromptsParameters{
		ChannelID: channel,
		ThreadTS:  threadTS,
		Title:     title,
		Prompts:   make([]slack.AssistantThreadsPrompt, 0, len(prompts)),
	}
	for _, pr := range prompts {
		params.Prompts = append(params.Prompts, slack.AssistantThreadsPrompt{Title: pr.Title, Message: pr.Message})
	}
	if err := p.api.SetAssistantThreadsSuggestedPromptsContext(ctx, params); err != nil {
		return fmt.Errorf("assistant.threads.setSuggestedPrompts: %w", err)
	}
	return nil
}

func (p *SlackPlatform) SetStatus(ctx context.Context, channel, threadTS, status string) error {
	err := p.api.SetAssistantThreadsStatusContext(ctx, slack.AssistantThreadsSetStatusParameters{
		ChannelID: channel,
		ThreadTS:  threadTS,
		Status:    status,
	})
	if err != nil {
		return fmt.Errorf("assistant.threads.setStatus: %w", err)
	}
	return nil
}

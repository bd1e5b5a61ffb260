package slack

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/slack-go/slack"
)

// maxSectionText is Slack's limit for a section text object.
const maxSectionText = 3000

type Config struct {
	BotToken  string
	ChannelID string
}

func (c Config) Enabled() bool {
	return c.BotToken != "" && c.ChannelID != ""
}

type poster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// Publisher mirrors answered questions to a Slack channel.
type Publisher struct {
	api    poster
	config Config
}

func NewPublisher(config Config) *Publisher {
	return &Publisher{api: slack.New(config.BotToken), config: config}
}

func (p *Publisher) Publish(ctx context.Context, question, answer string, at time.Time) error {
	_, msgTimestamp, err := p.api.PostMessageContext(ctx,
		p.config.ChannelID,
		slack.MsgOptionText(question, false),
		slack.MsgOptionBlocks(Blocks(question, answer, at)...),
	)
	if err != nil {
		log.Err(err).Str("channel", p.config.ChannelID).Msg("Failed to post Slack message")
		return err
	}

	log.Info().
		Str("channel", p.config.ChannelID).
		Str("timestamp", msgTimestamp).
		Msg("Answer posted to Slack")
	return nil
}

// Blocks lays out one question and its answer.
func Blocks(question, answer string, at time.Time) []slack.Block {
	return []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(
			"plain_text", "Log question", false, false,
		)),
		slack.NewSectionBlock(
			slack.NewTextBlockObject("mrkdwn",
				truncate(fmt.Sprintf("*Question:*\n%s", question)),
				false, false),
			nil, nil,
		),
		slack.NewDividerBlock(),
		slack.NewSectionBlock(
			slack.NewTextBlockObject("mrkdwn",
				truncate(fmt.Sprintf("*Answer:*\n%s", answer)),
				false, false),
			nil, nil,
		),
		slack.NewContextBlock("",
			slack.NewTextBlockObject("mrkdwn",
				fmt.Sprintf("Answered at: %s", at.Format(time.RFC1123)),
				false, false),
		),
	}
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxSectionText {
		return s
	}
	return string(r[:maxSectionText-1]) + "…"
}

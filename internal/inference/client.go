// Package inference forwards a single prompt to a hosted Claude model on
// Amazon Bedrock.
package inference

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/aws/aws-sdk-go-v2/aws"
)

const (
	DefaultModel     = "anthropic.claude-3-sonnet-20240229-v1:0"
	DefaultMaxTokens = 1024
)

// MessageAPI is the subset of the SDK's message service the client calls.
type MessageAPI interface {
	New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

type Usage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

type Analysis struct {
	Text  string `json:"response"`
	Model string `json:"model,omitempty"`
	Usage Usage  `json:"usage"`
}

type Options struct {
	Model     string
	MaxTokens int64
}

type Client struct {
	messages  MessageAPI
	model     string
	maxTokens int64
}

func New(messages MessageAPI, opts Options) *Client {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultModel
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &Client{messages: messages, model: model, maxTokens: maxTokens}
}

// NewBedrock signs requests with cfg and sends them to the Bedrock runtime.
// SDK retries are disabled; a failed call is reported once.
func NewBedrock(cfg aws.Config, opts Options) *Client {
	client := anthropic.NewClient(
		bedrock.WithConfig(cfg),
		option.WithMaxRetries(0),
	)
	return New(&client.Messages, opts)
}

// Analyze sends prompt as one user message and returns the text of the first
// content block.
func (c *Client) Analyze(ctx context.Context, prompt string) (Analysis, error) {
	msg, err := c.messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return Analysis{}, err
	}
	out := Analysis{
		Model: string(msg.Model),
		Usage: Usage{
			InputTokens:  msg.Usage.InputTokens,
			OutputTokens: msg.Usage.OutputTokens,
		},
	}
	if len(msg.Content) > 0 {
		out.Text = msg.Content[0].Text
	}
	return out, nil
}

func (c *Client) Model() string {
	return c.model
}

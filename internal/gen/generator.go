// Package gen wraps the external generation collaborator. The
// collaborator produces additional candidate findings from a prompt;
// its output is untrusted text and is always parsed defensively.
package gen

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// DefaultModel is used when no model override is configured.
const DefaultModel = "claude-sonnet-4-5-20250929"

// DefaultTimeout bounds a single generation call. There is no retry: a
// timed-out or failed call degrades the caller to rule-only output for
// that file and category.
const DefaultTimeout = 60 * time.Second

// maxConcurrentCalls limits in-flight API calls to avoid rate limiting
// when multiple runs share one client.
const maxConcurrentCalls = 3

// Generator produces text from a prompt. Implementations must be safe
// for concurrent use.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Client is a Generator backed by the Anthropic API.
type Client struct {
	client  anthropic.Client
	model   string
	timeout time.Duration
	sem     *semaphore.Weighted
	limiter *rate.Limiter
}

// Options configures a Client. Zero values select defaults.
type Options struct {
	Model   string
	Timeout time.Duration
}

// NewClient creates an Anthropic-backed generator. The API key is read
// from the ANTHROPIC_API_KEY environment variable.
func NewClient(opts Options) (*Client, error) {
	if os.Getenv("ANTHROPIC_API_KEY") == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is not set")
	}

	model := opts.Model
	if model == "" {
		model = DefaultModel
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		client:  anthropic.NewClient(),
		model:   model,
		timeout: timeout,
		sem:     semaphore.NewWeighted(maxConcurrentCalls),
		limiter: rate.NewLimiter(rate.Limit(2), maxConcurrentCalls),
	}, nil
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

// Generate makes a single bounded API call and returns the response
// text. No retry is attempted; errors and timeouts surface directly.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("failed to acquire generation slot: %w", err)
	}
	defer c.sem.Release(1)

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait canceled: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	startTime := time.Now()
	response, err := c.client.Messages.New(callCtx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: 4096,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("generation API call failed: %w", err)
	}

	var text string
	for _, block := range response.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	fmt.Printf("Generation call: input=%d tokens, output=%d tokens, duration=%v\n",
		response.Usage.InputTokens, response.Usage.OutputTokens, time.Since(startTime))

	return text, nil
}

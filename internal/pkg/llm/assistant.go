package llm

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
)

const (
	defaultPollInterval = time.Second
	defaultPollTimeout  = 90 * time.Second
	cancelRunTimeout    = 5 * time.Second
	messagePageSize     = 10
)

// file_search citation markers such as 【4:0†source】
var citationPattern = regexp.MustCompile(`【[^】]*】`)

// AssistantClient is the part of the OpenAI client used for assistant threads and runs
type AssistantClient interface {
	CreateThread(ctx context.Context, request openai.ThreadRequest) (openai.Thread, error)
	CreateRun(ctx context.Context, threadID string, request openai.RunRequest) (openai.Run, error)
	RetrieveRun(ctx context.Context, threadID string, runID string) (openai.Run, error)
	CancelRun(ctx context.Context, threadID string, runID string) (openai.Run, error)
	ListMessage(ctx context.Context, threadID string, limit *int, order *string, after *string, before *string, runID *string) (openai.MessagesList, error)
}

// AssistantResolver maps a study year to the assistant holding its textbooks
type AssistantResolver func(studyYear string) string

// AssistantProvider answers through a retrieval assistant: one thread per request, polled until the run ends
type AssistantProvider struct {
	client       AssistantClient
	resolve      AssistantResolver
	pollInterval time.Duration
	pollTimeout  time.Duration
	logger       zerolog.Logger
}

// NewAssistantProvider creates an assistant provider. Non-positive durations use the defaults.
func NewAssistantProvider(client AssistantClient, resolve AssistantResolver, pollInterval, pollTimeout time.Duration, logger zerolog.Logger) *AssistantProvider {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	if pollTimeout <= 0 {
		pollTimeout = defaultPollTimeout
	}
	return &AssistantProvider{
		client:       client,
		resolve:      resolve,
		pollInterval: pollInterval,
		pollTimeout:  pollTimeout,
		logger:       logger,
	}
}

func (p *AssistantProvider) Name() string { return "assistant" }

// Generate runs the prompt on the study year's assistant and returns its reply without citation markers
func (p *AssistantProvider) Generate(ctx context.Context, prompt Prompt) (string, error) {
	if p.client == nil || p.resolve == nil {
		return "", ErrNotConfigured
	}
	assistantID := p.resolve(prompt.StudyYear)
	if assistantID == "" {
		return "", fmt.Errorf("%w: no assistant for %q", ErrNotConfigured, prompt.StudyYear)
	}

	thread, err := p.client.CreateThread(ctx, openai.ThreadRequest{
		Messages: []openai.ThreadMessage{
			{Role: openai.ThreadMessageRoleUser, Content: prompt.User},
		},
	})
	if err != nil {
		return "", fmt.Errorf("create thread: %w", err)
	}

	run, err := p.client.CreateRun(ctx, thread.ID, openai.RunRequest{
		AssistantID:            assistantID,
		AdditionalInstructions: prompt.System,
	})
	if err != nil {
		return "", fmt.Errorf("create run: %w", err)
	}

	p.logger.Debug().
		Str("thread_id", thread.ID).
		Str("run_id", run.ID).
		Str("assistant_id", assistantID).
		Msg("Assistant run started")

	run, err = p.waitForRun(ctx, thread.ID, run)
	if err != nil {
		return "", err
	}

	return p.readReply(ctx, thread.ID, run.ID)
}

// waitForRun polls until the run reaches a terminal status, the poll deadline passes, or ctx is done
func (p *AssistantProvider) waitForRun(ctx context.Context, threadID string, run openai.Run) (openai.Run, error) {
	pollCtx, cancel := context.WithTimeout(ctx, p.pollTimeout)
	defer cancel()

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		switch run.Status {
		case openai.RunStatusQueued, openai.RunStatusInProgress, openai.RunStatusCancelling:
		case openai.RunStatusCompleted:
			return run, nil
		default:
			return run, runError(run)
		}

		select {
		case <-pollCtx.Done():
			p.cancelRun(threadID, run.ID)
			if err := ctx.Err(); err != nil {
				return run, err
			}
			return run, fmt.Errorf("%w after %s", ErrRunTimeout, p.pollTimeout)
		case <-ticker.C:
		}

		next, err := p.client.RetrieveRun(pollCtx, threadID, run.ID)
		if err != nil {
			if pollCtx.Err() != nil {
				continue
			}
			return run, fmt.Errorf("retrieve run: %w", err)
		}
		run = next
	}
}

// cancelRun stops an abandoned run so it does not keep consuming tokens
func (p *AssistantProvider) cancelRun(threadID, runID string) {
	ctx, cancel := context.WithTimeout(context.Background(), cancelRunTimeout)
	defer cancel()

	if _, err := p.client.CancelRun(ctx, threadID, runID); err != nil {
		p.logger.Warn().Err(err).Str("thread_id", threadID).Str("run_id", runID).Msg("Failed to cancel assistant run")
	}
}

func (p *AssistantProvider) readReply(ctx context.Context, threadID, runID string) (string, error) {
	limit := messagePageSize
	order := "desc"
	msgs, err := p.client.ListMessage(ctx, threadID, &limit, &order, nil, nil, &runID)
	if err != nil {
		return "", fmt.Errorf("list messages: %w", err)
	}

	for _, msg := range msgs.Messages {
		if msg.Role != openai.ChatMessageRoleAssistant {
			continue
		}
		if text := messageText(msg); text != "" {
			return text, nil
		}
	}
	return "", ErrEmptyResponse
}

func messageText(msg openai.Message) string {
	var parts []string
	for _, c := range msg.Content {
		if c.Text == nil {
			continue
		}
		if v := strings.TrimSpace(citationPattern.ReplaceAllString(c.Text.Value, "")); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, "\n")
}

func runError(run openai.Run) error {
	if run.LastError != nil && run.LastError.Message != "" {
		return fmt.Errorf("%w: status %s: %s", ErrRunFailed, run.Status, run.LastError.Message)
	}
	return fmt.Errorf("%w: status %s", ErrRunFailed, run.Status)
}

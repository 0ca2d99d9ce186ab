// Package ai enriches job records with short model-written summaries. All
// failures are soft: a job that cannot be summarized is left untouched and
// the run carries on.
package ai

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/sync/errgroup"

	"upjobs-engine/internal/domain"
)

// Completer produces a completion for a prompt. tokens is the total usage
// reported by the provider, 0 when unknown.
type Completer interface {
	Complete(ctx context.Context, prompt string) (text string, tokens int, err error)
}

const systemPrompt = "You are a concise assistant summarizing Upwork job descriptions for fast triage."

type OpenAIClient struct {
	c     *openai.Client
	model string
}

func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	return &OpenAIClient{c: openai.NewClient(apiKey), model: model}
}

func (o *OpenAIClient) Complete(ctx context.Context, prompt string) (string, int, error) {
	resp, err := o.c.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.1,
		MaxTokens:   200,
	})
	if err != nil {
		return "", 0, err
	}
	if len(resp.Choices) == 0 {
		return "", 0, errors.New("no choices in response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), resp.Usage.TotalTokens, nil
}

type Summarizer struct {
	Client      Completer // nil disables summarization
	Model       string
	MaxWords    int
	Limit       int
	Concurrency int
	Timeout     time.Duration
}

// SummarizeJobs fills description_summary for up to Limit jobs that have a
// description but no summary yet, fanning out at most Concurrency requests
// at a time. Jobs mutate in place; the return value is how many succeeded.
func (s *Summarizer) SummarizeJobs(ctx context.Context, jobs []*domain.Job) int {
	if s.Client == nil || s.Limit <= 0 {
		return 0
	}
	concurrency := s.Concurrency
	if concurrency <= 0 {
		concurrency = 5
	}

	var picked []*domain.Job
	for _, j := range jobs {
		if len(picked) >= s.Limit {
			break
		}
		if j.DescriptionSummary != nil && *j.DescriptionSummary != "" {
			continue
		}
		if j.Description == nil || *j.Description == "" {
			continue
		}
		picked = append(picked, j)
	}
	if len(picked) == 0 {
		return 0
	}
	log.Printf("[ai] summarizing %d jobs (model=%s concurrency=%d)", len(picked), s.Model, concurrency)

	var done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, job := range picked {
		g.Go(func() error {
			prompt, err := RenderSummaryPrompt(job, s.MaxWords)
			if err != nil {
				log.Printf("[ai] job %s: prompt: %v", job.JobID, err)
				return nil
			}
			cctx := gctx
			if s.Timeout > 0 {
				var cancel context.CancelFunc
				cctx, cancel = context.WithTimeout(gctx, s.Timeout)
				defer cancel()
			}
			text, tokens, err := s.Client.Complete(cctx, prompt)
			if err != nil {
				log.Printf("[ai] job %s: %v", job.JobID, err)
				return nil
			}
			if text == "" {
				return nil
			}
			job.DescriptionSummary = &text
			model := s.Model
			job.DescriptionSummaryModel = &model
			t := tokens
			job.DescriptionSummaryTokens = &t
			done.Add(1)
			return nil
		})
	}
	_ = g.Wait()
	return int(done.Load())
}

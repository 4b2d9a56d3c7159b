// Command drip streams a model answer into a conversation endpoint.
//
// Usage:
//
//	GEMINI_API_KEY=gk-... drip [flags] "prompt"
//
// Flags:
//
//	-model string        Model ID (default gemini-3.1-pro-preview)
//	-width int           Terminal rendering width (default 80)
//	-interval duration   Minimum delay between stream updates (default 1.5s)
//	-service-url string  Bot connector base URL; omit to render locally
//	-conversation string Conversation ID (required with -service-url)
//	-feedback            Request the feedback UX on the final message
//	-ai-label            Label the final message as AI-generated
//	-search              Ground the answer with web search and cite sources
//
// Without -service-url the exchange renders in the terminal, redrawing the
// partial answer in place the way a chat surface would. With -service-url
// activities are posted to the connector, authenticated by TEAMS_BOT_TOKEN.
// Sources gathered by -search appear on the final message when -ai-label
// is set.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/fwojciec/drip"
	"github.com/fwojciec/drip/teams"
	"github.com/fwojciec/drip/term"
	"google.golang.org/genai"
)

const defaultModel = "gemini-3.1-pro-preview"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "drip: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Parse flags.
	var (
		model        = flag.String("model", defaultModel, "Model ID")
		width        = flag.Int("width", 80, "Terminal rendering width")
		interval     = flag.Duration("interval", drip.DefaultMinSendInterval, "Minimum delay between stream updates")
		serviceURL   = flag.String("service-url", "", "Bot connector base URL; omit to render locally")
		conversation = flag.String("conversation", "", "Conversation ID (required with -service-url)")
		feedback     = flag.Bool("feedback", false, "Request the feedback UX on the final message")
		aiLabel      = flag.Bool("ai-label", false, "Label the final message as AI-generated")
		search       = flag.Bool("search", false, "Ground the answer with web search and cite sources")
	)
	flag.Parse()

	prompt := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if prompt == "" {
		return errors.New("prompt required")
	}

	// Handle OS signals for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Resolve the delivery endpoint. Env vars are read here and passed as
	// values.
	sender, err := resolveSender(*serviceURL, *conversation, os.Getenv("TEAMS_BOT_TOKEN"), *width)
	if err != nil {
		return err
	}

	streamer := drip.New(sender, drip.WithMinSendInterval(*interval))
	if *feedback {
		streamer.SetFeedbackLoop(true)
	}
	if *aiLabel {
		streamer.SetGeneratedByAILabel(true)
	}

	preamble := "Thinking..."
	if *search {
		preamble = "Searching..."
	}
	if err := streamer.QueueInformativeUpdate(preamble); err != nil {
		return err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  os.Getenv("GEMINI_API_KEY"),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return fmt.Errorf("gemini: %w", err)
	}

	contents := []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{{Text: prompt}},
	}}
	config := &genai.GenerateContentConfig{MaxOutputTokens: 8192}
	if *search {
		config.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}

	var last *genai.GenerateContentResponse
	for resp, err := range client.Models.GenerateContentStream(ctx, *model, contents, config) {
		if err != nil {
			return fmt.Errorf("generate: %w", err)
		}
		last = resp
		if text := chunkText(resp); text != "" {
			if err := streamer.QueueTextChunk(text); err != nil {
				return err
			}
		}
	}

	streamer.AddCitations(groundingCitations(last)...)

	if err := streamer.End(ctx); err != nil {
		return fmt.Errorf("end stream: %w", err)
	}
	return nil
}

// resolveSender picks the delivery endpoint: the connector when a service
// URL is given, the local terminal otherwise.
func resolveSender(serviceURL, conversation, token string, width int) (drip.Sender, error) {
	if serviceURL == "" {
		return term.New(os.Stdout, term.WithWidth(width)), nil
	}
	if conversation == "" {
		return nil, errors.New("-conversation required with -service-url")
	}
	if token == "" {
		return nil, errors.New("TEAMS_BOT_TOKEN not set")
	}
	return teams.New(token, serviceURL, conversation), nil
}

// chunkText returns the visible text of a streamed response chunk,
// skipping thought parts.
func chunkText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		b.WriteString(part.Text)
	}
	return b.String()
}

// groundingCitations converts the web sources the model grounded on into
// citations. Grounding metadata arrives on the last chunk of the stream.
func groundingCitations(resp *genai.GenerateContentResponse) []drip.Citation {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].GroundingMetadata == nil {
		return nil
	}
	var citations []drip.Citation
	for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
		if chunk == nil || chunk.Web == nil {
			continue
		}
		citations = append(citations, drip.Citation{
			Title: chunk.Web.Title,
			URL:   chunk.Web.URI,
		})
	}
	return citations
}

package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ternarybob/curator/internal/interfaces"
	"github.com/ternarybob/curator/internal/services/markdown"
)

// Translate translates a document. In chunked mode the text is split
// via the paragraph merger and chunks are translated concurrently; an
// explicit index carried with each result reassembles them in original
// order. Whole mode submits the joined text in one call.
func (s *Service) Translate(ctx context.Context, text string, maxChars int, whole bool) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}

	if whole {
		return s.translateChunk(ctx, text)
	}

	chunks := markdown.MergeParagraphs(text, maxChars)
	if len(chunks) == 0 {
		return "", nil
	}

	type indexed struct {
		index int
		text  string
	}

	results := make([]string, len(chunks))
	errCh := make(chan error, len(chunks))
	out := make(chan indexed, len(chunks))

	var wg sync.WaitGroup
	for i, chunk := range chunks {
		wg.Add(1)
		go func(index int, chunk string) {
			defer wg.Done()
			translated, err := s.translateChunk(ctx, chunk)
			if err != nil {
				errCh <- fmt.Errorf("chunk %d: %w", index, err)
				return
			}
			out <- indexed{index: index, text: translated}
		}(i, chunk)
	}
	wg.Wait()
	close(errCh)
	close(out)

	if err := <-errCh; err != nil {
		return "", err
	}
	for r := range out {
		results[r.index] = r.text
	}
	return strings.Join(results, "\n"), nil
}

func (s *Service) translateChunk(ctx context.Context, chunk string) (string, error) {
	resp, err := s.provider.GenerateContent(ctx, &ContentRequest{
		Messages: []interfaces.Message{
			{Role: "system", Content: translationPrompt},
			{Role: "user", Content: chunk},
		},
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/curator/internal/common"
	"github.com/ternarybob/curator/internal/interfaces"
	"github.com/ternarybob/curator/internal/models"
)

const (
	// searchContextMarker delimits the web-search block embedded into
	// an augmented prompt.
	searchContextMarker = "=== search context ==="

	// searchQueryLength is how much of the content seeds the query.
	searchQueryLength = 100
)

// Service is the model client consumed by the workflow. It builds
// role-tagged prompts from the instruction templates, invokes the
// configured provider, and decodes the JSON answer. A malformed answer
// is persisted to the sink and surfaces as a nil result, never as an
// error; provider transport failures are returned as errors.
//
// When a search service is injected, article prompts are enriched with
// web-search context and every prompt/answer pair is persisted for
// audit. Without augmentation only malformed answers are persisted.
type Service struct {
	provider   Provider
	sink       interfaces.DecodeSink
	search     interfaces.SearchService
	maxResults int
	language   string
	logger     arbor.ILogger
}

// ServiceOption configures the Service.
type ServiceOption func(*Service)

// WithSearchAugmentation injects the best-effort web-search enrichment.
func WithSearchAugmentation(search interfaces.SearchService, cfg *common.SearchConfig) ServiceOption {
	return func(s *Service) {
		s.search = search
		if cfg != nil {
			if cfg.MaxResults > 0 {
				s.maxResults = cfg.MaxResults
			}
			s.language = cfg.Language
		}
	}
}

// NewService creates a model client over the given provider.
func NewService(provider Provider, sink interfaces.DecodeSink, logger arbor.ILogger, opts ...ServiceOption) *Service {
	s := &Service{
		provider:   provider,
		sink:       sink,
		maxResults: 3,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetArticleInfo classifies one article from its prompt text.
func (s *Service) GetArticleInfo(ctx context.Context, text, tag string) (*models.ClassificationResult, error) {
	return s.articleCompletion(ctx, articleInfoPrompt, text, tag)
}

// GetAuthorshipInfo extracts authorship only, without categories.
func (s *Service) GetAuthorshipInfo(ctx context.Context, text, tag string) (*models.ClassificationResult, error) {
	return s.articleCompletion(ctx, authorshipPrompt, text, tag)
}

func (s *Service) articleCompletion(ctx context.Context, instruction, text, tag string) (*models.ClassificationResult, error) {
	content := text
	audited := false
	if s.search != nil {
		content = s.augmentWithSearch(ctx, text)
		audited = true
	}

	answer, err := s.complete(ctx, instruction, content)
	if err != nil {
		return nil, err
	}
	if audited {
		s.dump(tag, content+"\n"+answer)
	}

	var result models.ClassificationResult
	if err := decodeAnswer(answer, &result); err != nil {
		s.handleDecodeFailure(tag, content, answer, err)
		return nil, nil
	}
	return &result, nil
}

// GetAuthorInfo looks up a person by name and optional description.
func (s *Service) GetAuthorInfo(ctx context.Context, name, description, tag string) (*models.AuthorInfo, error) {
	content := fmt.Sprintf("%s, %s", name, description)
	answer, err := s.complete(ctx, authorInfoPrompt, content)
	if err != nil {
		return nil, err
	}

	var result models.AuthorInfo
	if err := decodeAnswer(answer, &result); err != nil {
		s.handleDecodeFailure(tag, content, answer, err)
		return nil, nil
	}
	return &result, nil
}

// GetFieldInfo analyzes a taxonomy category name.
func (s *Service) GetFieldInfo(ctx context.Context, name, tag string) (*models.FieldInfo, error) {
	answer, err := s.complete(ctx, fieldInfoPrompt, name)
	if err != nil {
		return nil, err
	}

	var result models.FieldInfo
	if err := decodeAnswer(answer, &result); err != nil {
		s.handleDecodeFailure(tag, name, answer, err)
		return nil, nil
	}
	return &result, nil
}

func (s *Service) complete(ctx context.Context, instruction, content string) (string, error) {
	resp, err := s.provider.GenerateContent(ctx, &ContentRequest{
		Messages: []interfaces.Message{
			{Role: "system", Content: instruction},
			{Role: "user", Content: content},
		},
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// augmentWithSearch prepends a web-search context block to the
// content. Search is best-effort: any failure yields an empty block.
func (s *Service) augmentWithSearch(ctx context.Context, content string) string {
	query := buildSearchQuery(content)

	var contextLines []string
	if query != "" {
		results, err := s.search.Search(ctx, query, []string{"general"}, s.language)
		if err != nil {
			s.logger.Warn().Err(err).Str("query", query).Msg("Search augmentation unavailable, continuing without context")
		}
		for i, r := range results {
			if i >= s.maxResults {
				break
			}
			contextLines = append(contextLines, fmt.Sprintf("%s: %s", r.Title, r.Content))
		}
	}

	var sb strings.Builder
	sb.WriteString(searchContextMarker + "\n")
	sb.WriteString(strings.Join(contextLines, "\n"))
	sb.WriteString("\n" + searchContextMarker + "\n")
	sb.WriteString(content)
	return sb.String()
}

// buildSearchQuery takes the leading content, stripped of markdown
// emphasis characters and newlines, as the search query.
func buildSearchQuery(content string) string {
	replacer := strings.NewReplacer("*", "", "#", "", "`", "", "~", "", "\n", " ", "\r", "")
	cleaned := strings.TrimSpace(replacer.Replace(content))
	runes := []rune(cleaned)
	if len(runes) > searchQueryLength {
		runes = runes[:searchQueryLength]
	}
	return string(runes)
}

func (s *Service) handleDecodeFailure(tag, content, answer string, err error) {
	s.logger.Warn().
		Err(err).
		Str("tag", tag).
		Int("answer_length", len(answer)).
		Msg("Failed to decode model answer, persisting for triage")
	s.dump(tag, content+"\n"+answer)
}

func (s *Service) dump(tag, text string) {
	if tag == "" {
		tag = common.NewDumpID()
	}
	if err := s.sink.Write(tag, text); err != nil {
		s.logger.Error().Err(err).Str("tag", tag).Msg("Failed to persist model output dump")
	}
}

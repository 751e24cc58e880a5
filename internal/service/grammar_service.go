package service

import (
	"context"
	"fmt"

	"github.com/songpad/api/internal/client"
	"github.com/songpad/api/internal/model"
)

// GrammarService proxies grammar checks to the remote grammar API and maps
// its matches to the editor's correction format.
type GrammarService struct {
	grammarClient client.GrammarChecker
}

func NewGrammarService(grammarClient client.GrammarChecker) *GrammarService {
	return &GrammarService{grammarClient: grammarClient}
}

// Check runs the text through the grammar API.
func (s *GrammarService) Check(ctx context.Context, req *model.GrammarCheckRequest) (*model.GrammarCheckResponse, error) {
	result, err := s.grammarClient.Check(ctx, req.Text, req.Language)
	if err != nil {
		return nil, fmt.Errorf("grammar check failed: %w", err)
	}

	matches := make([]model.GrammarMatch, 0, len(result.Matches))
	for _, m := range result.Matches {
		replacements := make([]string, 0, len(m.Replacements))
		for _, r := range m.Replacements {
			replacements = append(replacements, r.Value)
		}
		matches = append(matches, model.GrammarMatch{
			Offset:       m.Offset,
			Length:       m.Length,
			Message:      m.Message,
			ShortMessage: m.ShortMessage,
			Replacements: replacements,
			RuleID:       m.Rule.ID,
			Category:     m.Rule.Category.Name,
		})
	}

	return &model.GrammarCheckResponse{
		Language: result.Language.Code,
		Matches:  matches,
	}, nil
}

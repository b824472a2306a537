package backup

import "context"

// AnalysisResult is the success arm of Analyze.
type AnalysisResult struct {
	Response string `json:"response"`
	Model    string `json:"model,omitempty"`
	Usage    Usage  `json:"usage"`
}

type Usage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

// Analyze sends prompt to the inference service once.
func (s *Service) Analyze(ctx context.Context, prompt string) (AnalysisResult, error) {
	const op = "analyze"
	if s.analyzer == nil {
		return AnalysisResult{}, unavailable(op, "inference")
	}
	analysis, err := s.analyzer.Analyze(ctx, prompt)
	if err != nil {
		return AnalysisResult{}, serviceFailure(op, "analysis failed", err)
	}
	return AnalysisResult{
		Response: analysis.Text,
		Model:    analysis.Model,
		Usage: Usage{
			InputTokens:  analysis.Usage.InputTokens,
			OutputTokens: analysis.Usage.OutputTokens,
		},
	}, nil
}

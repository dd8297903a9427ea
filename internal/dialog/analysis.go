package dialog

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
)

// Analyst answers free-text analytics questions. Satisfied by
// *analytics.Analyzer.
type Analyst interface {
	AnswerQuestion(question string) (string, error)
}

// AnalysisFlow is the looping Q&A session: every message is answered
// and the flow stays open until the user types an exit word or /cancel.
type AnalysisFlow struct {
	analyst Analyst
	log     zerolog.Logger
}

func NewAnalysisFlow(analyst Analyst, log zerolog.Logger) *AnalysisFlow {
	return &AnalysisFlow{analyst: analyst, log: log}
}

func (f *AnalysisFlow) Name() string { return "analysis" }

func (f *AnalysisFlow) Start(context.Context) Reply {
	return Reply{Text: "DATA ANALYSIS\n\n" +
		"Ask me about your numbers, for example:\n" +
		"• summary of the data\n" +
		"• spending by category\n" +
		"• monthly trend\n" +
		"• any anomalies?\n" +
		"• forecast next month\n\n" +
		"Type 'exit' to leave the analysis session."}
}

func (f *AnalysisFlow) Handle(_ context.Context, input string) (Reply, Outcome) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "exit", "quit", "done":
		return Reply{Text: "Analysis session closed."}, Completed
	}

	answer, err := f.analyst.AnswerQuestion(input)
	if err != nil {
		f.log.Error().Err(err).Msg("Answering analysis question failed")
		return Reply{Text: "Could not answer that question. Try another one, or 'exit' to leave."}, Continue
	}
	return Reply{Text: answer + "\n\nAnything else? Type 'exit' to leave."}, Continue
}

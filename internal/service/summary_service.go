package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hoopsight/api/internal/client"
	"github.com/hoopsight/api/internal/model"
)

const (
	// summaryTemperature keeps repeated analyses from returning identical
	// fixed numbers; the prompt asks the model to vary its estimates.
	summaryTemperature = 0.7

	defaultLabelLimit = 8

	noLabelsSentinel = "No labels found"
)

// summarySchema is embedded verbatim in the prompt. It is the contract
// with the model, not a measurement format; all values are estimates.
const summarySchema = `{
  "shotZones": {"rim": "62%", "shortMid": "11%", "longMid": "9%", "corners": "8%", "aboveBreak": "10%"},
  "playStyle": {"passVsShoot": "58% pass / 42% shoot", "driveVsPullUp": "71% drive / 29% pull-up"},
  "defense": {"avgDefDistance": "3.4 ft", "blowByRate": "24%", "helpGapFrequency": "31%"},
  "rimTendencies": {"finishRate": "57%", "kickOutRate": "22%", "vsTallerDefenders": "44%", "foulDrawRate": "18%"},
  "hotSpots": ["left corner", "rim", "right wing"],
  "handDominance": {"left": "35%", "right": "65%"}
}`

// summaryRequiredKeys are the top-level keys a response must carry.
// Missing keys are a schema violation, never silently defaulted.
var summaryRequiredKeys = []string{
	"shotZones", "playStyle", "defense", "rimTendencies", "hotSpots", "handDominance",
}

// SummaryService turns an annotation payload into a schema-conformant
// scouting summary via the language model.
type SummaryService struct {
	groqClient client.ChatCompleter
	labelLimit int
}

// NewSummaryService creates a new summary service with Groq client
func NewSummaryService(groqClient client.ChatCompleter, labelLimit int) *SummaryService {
	if labelLimit <= 0 {
		labelLimit = defaultLabelLimit
	}
	return &SummaryService{
		groqClient: groqClient,
		labelLimit: labelLimit,
	}
}

// Generate derives a validated summary from the annotation payload
func (s *SummaryService) Generate(ctx context.Context, payload *model.AnnotationPayload) (*model.AnalysisSummary, error) {
	featureLines := ExtractFeatureLines(payload, s.labelLimit)

	// Use mock response if client is not configured
	if s.groqClient == nil || !s.groqClient.IsConfigured() {
		return s.generateMock(), nil
	}

	systemPrompt := s.buildSystemPrompt()
	userPrompt := s.buildUserPrompt(featureLines)

	response, err := s.groqClient.ChatCompletion(ctx, systemPrompt, userPrompt, summaryTemperature)
	if err != nil {
		return nil, fmt.Errorf("%w: summary generation: %v", ErrUpstream, err)
	}

	return s.parseSummary(response)
}

// ExtractFeatureLines condenses an annotation payload of unbounded size
// into at most limit prompt lines, one per label, in payload order.
func ExtractFeatureLines(payload *model.AnnotationPayload, limit int) string {
	if payload == nil || len(payload.Labels) == 0 {
		return noLabelsSentinel
	}

	labels := payload.Labels
	if limit > 0 && len(labels) > limit {
		labels = labels[:limit]
	}

	lines := make([]string, 0, len(labels))
	for _, label := range labels {
		lines = append(lines, fmt.Sprintf("%s: %d segments", label.Description, label.Segments))
	}

	return strings.Join(lines, "\n")
}

func (s *SummaryService) buildSystemPrompt() string {
	return `You are a professional basketball analyst who turns raw video annotation data into scouting reports.
Always output your response as valid JSON matching the requested schema exactly.
Do not include any text outside the JSON object.`
}

func (s *SummaryService) buildUserPrompt(featureLines string) string {
	return fmt.Sprintf(`Analyze the following basketball footage features and estimate the player's tendencies.

Detected features:
%s

Produce a JSON object matching this schema exactly (same keys, same nesting):
%s

All percentage values are your best estimates from the features above.
Vary the numbers between requests rather than repeating fixed defaults.
Respond with the JSON object only, no surrounding prose.`, featureLines, summarySchema)
}

// parseSummary extracts the JSON object from a response that may contain
// extra prose, then validates the top-level schema keys.
func (s *SummaryService) parseSummary(response string) (*model.AnalysisSummary, error) {
	// Find the first { and last }
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, &MalformedResponseError{Raw: response}
	}
	candidate := response[start : end+1]

	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(candidate), &top); err != nil {
		return nil, &MalformedResponseError{Raw: response, Err: err}
	}

	var missing []string
	for _, key := range summaryRequiredKeys {
		if _, ok := top[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaViolationError{Raw: response, Missing: missing}
	}

	var summary model.AnalysisSummary
	if err := json.Unmarshal([]byte(candidate), &summary); err != nil {
		return nil, &MalformedResponseError{Raw: response, Err: err}
	}

	return &summary, nil
}

// generateMock returns a fixed summary for development/testing
func (s *SummaryService) generateMock() *model.AnalysisSummary {
	return &model.AnalysisSummary{
		ShotZones: model.ShotZones{
			Rim:        "54%",
			ShortMid:   "14%",
			LongMid:    "10%",
			Corners:    "9%",
			AboveBreak: "13%",
		},
		PlayStyle: model.PlayStyle{
			PassVsShoot:   "61% pass / 39% shoot",
			DriveVsPullUp: "68% drive / 32% pull-up",
		},
		Defense: model.Defense{
			AvgDefDistance:   "3.8 ft",
			BlowByRate:       "21%",
			HelpGapFrequency: "28%",
		},
		RimTendencies: model.RimTendencies{
			FinishRate:        "55%",
			KickOutRate:       "24%",
			VsTallerDefenders: "41%",
			FoulDrawRate:      "17%",
		},
		HotSpots: []string{"rim", "left corner", "right wing"},
		HandDominance: model.HandDominance{
			Left:  "38%",
			Right: "62%",
		},
	}
}

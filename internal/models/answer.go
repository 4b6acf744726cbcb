package models

import "time"

// Intent enumerates the question intents produced by the external text
// classifier. The core never derives intents from free text itself.
type Intent string

const (
	IntentHealth         Intent = "HEALTH_STATUS"
	IntentRootCause      Intent = "ROOT_CAUSE"
	IntentTimeBased      Intent = "TIME_BASED"
	IntentFrequency      Intent = "FREQUENCY_PATTERN"
	IntentPredictive     Intent = "PREDICTIVE"
	IntentRecommendation Intent = "RECOMMENDATION"
	IntentComparison     Intent = "COMPARISON"
	IntentFactual        Intent = "FACTUAL"
	IntentRiskPosture    Intent = "RISK_POSTURE"
	IntentEntityCount    Intent = "ENTITY_COUNT"
	IntentEntityList     Intent = "ENTITY_LIST"
	IntentUnknown        Intent = "UNKNOWN"
)

// QuestionType drives the answer contract: which sections a formatted answer
// may contain.
type QuestionType string

const (
	TypeFact       QuestionType = "FACT"
	TypeStatus     QuestionType = "STATUS"
	TypeAnalysis   QuestionType = "ANALYSIS"
	TypePrediction QuestionType = "PREDICTION"
	TypeAction     QuestionType = "ACTION"
)

// QuestionTypeFor maps an intent onto its answer contract.
func QuestionTypeFor(intent Intent) QuestionType {
	switch intent {
	case IntentRecommendation:
		return TypeAction
	case IntentPredictive, IntentRiskPosture:
		return TypePrediction
	case IntentHealth:
		return TypeStatus
	case IntentRootCause, IntentTimeBased, IntentFrequency, IntentComparison:
		return TypeAnalysis
	default:
		return TypeFact
	}
}

// Entities carries structured slots extracted from the question by the
// classifier collaborator.
type Entities struct {
	Target   string
	Severity Severity
	Code     string
	Window   *TimeRange
	Hours    *HourWindow
}

// Classification is the classifier collaborator's verdict for one question.
type Classification struct {
	Intent       Intent
	Confidence   float64
	Entities     Entities
	WantsActions bool
}

// ActionGroup links a set of recommended steps to the cause that motivated
// them. Steps is never empty.
type ActionGroup struct {
	Cause         string
	AbstractCause string
	Urgency       string
	Priority      string
	Source        string
	Steps         []string
}

// Answer is the engine's reply to one question.
type Answer struct {
	ID              string
	Text            string
	Target          string
	Intent          Intent
	QuestionType    QuestionType
	Confidence      float64
	ConfidenceLabel string
	Evidence        []string
	ActionsIncluded bool
	Widened         bool
	WideningReason  string
	CreatedAt       time.Time
}

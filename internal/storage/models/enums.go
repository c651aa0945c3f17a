package models

import "fmt"

// Metric is one of the five fixed evaluation dimensions.
type Metric string

const (
	MetricCommunication      Metric = "communication"
	MetricTechnicalKnowledge Metric = "technical_knowledge"
	MetricProblemSolving     Metric = "problem_solving"
	MetricCulturalFit        Metric = "cultural_fit"
	MetricConfidenceClarity  Metric = "confidence_clarity"
)

// AllMetrics lists the metrics in presentation order.
var AllMetrics = []Metric{
	MetricCommunication,
	MetricTechnicalKnowledge,
	MetricProblemSolving,
	MetricCulturalFit,
	MetricConfidenceClarity,
}

func ParseMetric(s string) (Metric, error) {
	switch m := Metric(s); m {
	case MetricCommunication,
		MetricTechnicalKnowledge,
		MetricProblemSolving,
		MetricCulturalFit,
		MetricConfidenceClarity:
		return m, nil
	}
	return "", fmt.Errorf("unknown metric %q", s)
}

func (m Metric) Label() string {
	switch m {
	case MetricCommunication:
		return "Communication"
	case MetricTechnicalKnowledge:
		return "Technical Knowledge"
	case MetricProblemSolving:
		return "Problem Solving"
	case MetricCulturalFit:
		return "Cultural & Role Fit"
	case MetricConfidenceClarity:
		return "Confidence & Clarity"
	}
	return string(m)
}

type QuestionType string

const (
	QuestionTechnical      QuestionType = "technical"
	QuestionBehavioral     QuestionType = "behavioral"
	QuestionSituational    QuestionType = "situational"
	QuestionProblemSolving QuestionType = "problem_solving"
	QuestionCultural       QuestionType = "cultural"
)

var AllQuestionTypes = []QuestionType{
	QuestionTechnical,
	QuestionBehavioral,
	QuestionSituational,
	QuestionProblemSolving,
	QuestionCultural,
}

func ParseQuestionType(s string) (QuestionType, error) {
	switch t := QuestionType(s); t {
	case QuestionTechnical,
		QuestionBehavioral,
		QuestionSituational,
		QuestionProblemSolving,
		QuestionCultural:
		return t, nil
	}
	return "", fmt.Errorf("unknown question type %q", s)
}

var AllStatuses = []InterviewStatus{
	StatusCreated,
	StatusInProgress,
	StatusCompleted,
	StatusCancelled,
}

// SourcesOf returns every status that may move to next.
func SourcesOf(next InterviewStatus) []InterviewStatus {
	var from []InterviewStatus
	for _, s := range AllStatuses {
		if s.CanTransition(next) {
			from = append(from, s)
		}
	}
	return from
}

// CanTransition reports whether an interview may move from s to next.
func (s InterviewStatus) CanTransition(next InterviewStatus) bool {
	switch s {
	case StatusCreated:
		return next == StatusInProgress || next == StatusCompleted || next == StatusCancelled
	case StatusInProgress:
		return next == StatusCompleted || next == StatusCancelled
	}
	return false
}

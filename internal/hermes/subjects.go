package hermes

import "time"

const (
	StreamName   = "CANOPY_EVENTS"
	StreamMaxAge = 30 * 24 * time.Hour
)

func StreamSubjects() []string {
	return []string{"canopy.dataset.>", "canopy.analysis.>"}
}

func SubjectDatasetCreated(datasetID string) string {
	return "canopy.dataset." + datasetID + ".created"
}

func SubjectDatasetDeleted(datasetID string) string {
	return "canopy.dataset." + datasetID + ".deleted"
}

func SubjectAnalysisCompleted(runID string) string {
	return "canopy.analysis." + runID + ".completed"
}

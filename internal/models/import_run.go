package models

import (
	"encoding/json"
	"time"
)

// ImportKind identifies an import flavor.
type ImportKind string

const (
	ImportKindTaxonomy          ImportKind = "taxonomy"
	ImportKindTeachers          ImportKind = "teachers"
	ImportKindStudents          ImportKind = "students"
	ImportKindClassCardStaff    ImportKind = "classcard-staff"
	ImportKindClassCardStudents ImportKind = "classcard-students"
	ImportKindClassCardSchedule ImportKind = "classcard-schedule"
)

// ImportRun records the outcome of one upload for the history endpoints.
type ImportRun struct {
	ID         string          `json:"id"`
	Kind       ImportKind      `json:"kind"`
	FileName   string          `json:"fileName"`
	ActorID    string          `json:"actorId,omitempty"`
	Succeeded  bool            `json:"succeeded"`
	ErrorCount int             `json:"errorCount"`
	Summary    json.RawMessage `json:"summary,omitempty"`
	Failure    string          `json:"failure,omitempty"`
	StartedAt  time.Time       `json:"startedAt"`
	FinishedAt time.Time       `json:"finishedAt"`
}

package domain

import "time"

// JobState is the lifecycle state of the single query job slot.
type JobState string

// Job lifecycle states. Building through Executing are worker phases;
// Completed, CompletedEmpty, Failed, and Cancelled are terminal.
const (
	JobStateIdle           JobState = "IDLE"
	JobStateBuilding       JobState = "BUILDING"
	JobStateConnecting     JobState = "CONNECTING"
	JobStatePreparingView  JobState = "PREPARING_VIEW"
	JobStateExecuting      JobState = "EXECUTING"
	JobStateCompleted      JobState = "COMPLETED"
	JobStateCompletedEmpty JobState = "COMPLETED_EMPTY"
	JobStateFailed         JobState = "FAILED"
	JobStateCancelled      JobState = "CANCELLED"
)

// Terminal reports whether the state is a terminal outcome.
func (s JobState) Terminal() bool {
	switch s {
	case JobStateCompleted, JobStateCompletedEmpty, JobStateFailed, JobStateCancelled:
		return true
	}
	return false
}

// JobErrorKind classifies a worker failure for the status record.
type JobErrorKind string

// Failure classifications written by the worker. Induced cancellations are
// reported as state Cancelled and never carry a JobError.
const (
	JobErrorConnection JobErrorKind = "ENGINE_CONNECTION"
	JobErrorBinding    JobErrorKind = "VIEW_BINDING"
	JobErrorExecution  JobErrorKind = "EXECUTION"
)

// JobError is the textual failure classification exposed to pollers.
// No raw engine error object crosses the worker boundary.
type JobError struct {
	Kind    JobErrorKind `json:"kind"`
	Message string       `json:"message"`
}

// JobSnapshot is a copy-out view of the job status record, safe to retain
// after the record itself has been detached.
type JobSnapshot struct {
	ID                string     `json:"id"`
	State             JobState   `json:"state"`
	StatusText        string     `json:"status_text"`
	QueryText         string     `json:"query_text,omitempty"`
	StartTime         time.Time  `json:"start_time"`
	Elapsed           float64    `json:"elapsed_seconds"`
	CancelRequested   bool       `json:"cancel_requested"`
	CancelRequestedAt *time.Time `json:"cancel_requested_at,omitempty"`
	RowCount          int        `json:"row_count"`
	Error             *JobError  `json:"error,omitempty"`
}

package models

import "time"

// BatchFile references the input file of a batch.
type BatchFile struct {
	ID string `json:"id"`
}

// BatchRequest starts a batch job over an uploaded file.
type BatchRequest struct {
	File             BatchFile   `json:"file"`
	CompletionWindow NameRef     `json:"completion_window"`
	Provider         ProviderRef `json:"provider"`
	Endpoint         NameRef     `json:"endpoint"`
}

// BatchRequestCounts tracks per-line progress.
type BatchRequestCounts struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

// BatchError is a batch-level or line-level failure.
type BatchError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Line    *int   `json:"line,omitempty"`
}

// BatchResult is the encoded output document of a completed batch.
type BatchResult struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// BatchMessage is one output message of a batch line.
type BatchMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// BatchDataItem is one decoded output line.
type BatchDataItem struct {
	Message BatchMessage `json:"message"`
	Usage   Usage        `json:"usage"`
	Error   *BatchError  `json:"error,omitempty"`
}

// BatchData is the document encoded into BatchResult.Content.
type BatchData struct {
	Data []BatchDataItem `json:"data"`
}

// BatchResponse describes a batch job.
type BatchResponse struct {
	ID               string             `json:"id"`
	File             BatchFile          `json:"file"`
	Status           EnumField          `json:"status"`
	RequestCounts    BatchRequestCounts `json:"request_counts"`
	CompletionWindow NameRef            `json:"completion_window"`
	Endpoint         EnumField          `json:"endpoint"`
	Errors           []BatchError       `json:"errors,omitempty"`
	Cost             *Cost              `json:"cost,omitempty"`
	Usage            *Usage             `json:"usage,omitempty"`
	Result           *BatchResult       `json:"result,omitempty"`
	CreatedAt        *time.Time         `json:"created_at,omitempty"`
	InProgressAt     *time.Time         `json:"in_progress_at,omitempty"`
	CompletedAt      *time.Time         `json:"completed_at,omitempty"`
	FailedAt         *time.Time         `json:"failed_at,omitempty"`
	ExpiredAt        *time.Time         `json:"expired_at,omitempty"`
	CancelledAt      *time.Time         `json:"cancelled_at,omitempty"`
}

// BatchCompleted is the status name of a finished batch.
const BatchCompleted = "completed"

var batchStatuses = map[string]EnumField{
	"validating":  {ID: 1, Name: "validating", Description: "Batch process is being validated"},
	"failed":      {ID: 2, Name: "failed", Description: "Batch process has failed"},
	"in_progress": {ID: 3, Name: "in_progress", Description: "Batch in progress"},
	"finalizing":  {ID: 4, Name: "finalizing", Description: "Batch is being finalized"},
	"completed":   {ID: 5, Name: "completed", Description: "Batch process completed successfully"},
	"expired":     {ID: 6, Name: "expired", Description: "Batch has expired"},
	"cancelling":  {ID: 7, Name: "cancelling", Description: "Batch process is being cancelled"},
	"cancelled":   {ID: 8, Name: "cancelled", Description: "Batch process has been cancelled"},
}

var batchEndpoints = map[string]EnumField{
	"/chat/completions": {ID: 1, Name: "/chat/completions", Description: "Chat Conversation"},
}

// BatchStatus returns the enum for a batch status name.
func BatchStatus(name string) EnumField { return lookupEnum(batchStatuses, name) }

// BatchEndpoint returns the enum for a batch endpoint name.
func BatchEndpoint(name string) EnumField { return lookupEnum(batchEndpoints, name) }

// DataList wraps list responses.
type DataList[T any] struct {
	Data []T `json:"data"`
}

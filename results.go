package etl

import (
	"github.com/BEN-DataDev/orgs-sveltekit-etl/internal/sinks"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/batch"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/reconciler"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/records"
)

// StatusSuccess is the status of every successful response.
const StatusSuccess = "success"

// SyncResult is the outcome of a bulk sync. It is cached as JSON, so
// Records is only populated on the run that produced it; cached responses
// carry the preview in MergedRecords.
type SyncResult struct {
	Status             string                 `json:"status"`
	RunID              string                 `json:"run_id"`
	State              string                 `json:"state"`
	PostcodeStats      batch.PostcodeStats    `json:"postcode_stats"`
	MergeStats         reconciler.Statistics  `json:"merge_stats"`
	MergedRecordsCount int                    `json:"merged_records_count"`
	LoaderResult       []sinks.Result         `json:"loader_result"`
	MergedRecords      []records.Organisation `json:"merged_records"`
	TotalMergedRecords int                    `json:"total_merged_records"`
	ProcessingTime     float64                `json:"processing_time"`

	ExportFile  string `json:"export_file,omitempty"`
	ExportError string `json:"export_error,omitempty"`
	Object      string `json:"export_object,omitempty"`
	Report      string `json:"report_file,omitempty"`

	Records []records.Organisation `json:"-"`
	Cached  bool                   `json:"cached,omitempty"`
}

// SourceSyncResult is the outcome of a single-source sync.
type SourceSyncResult struct {
	Status           string                 `json:"status"`
	Source           string                 `json:"source"`
	State            string                 `json:"state,omitempty"`
	Postcode         string                 `json:"postcode,omitempty"`
	RecordsProcessed int                    `json:"records_processed"`
	LoaderResult     []sinks.Result         `json:"loader_result,omitempty"`
	Data             []records.Organisation `json:"data"`
	Cached           bool                   `json:"cached,omitempty"`
}

// LookupResult is the outcome of an ABN lookup.
type LookupResult struct {
	Status string       `json:"status"`
	ABN    string       `json:"abn"`
	Data   *records.ABN `json:"data"`
	Cached bool         `json:"cached,omitempty"`
}

// UploadResult acknowledges a postcode upload.
type UploadResult struct {
	Status         string   `json:"status"`
	Message        string   `json:"message"`
	State          string   `json:"state"`
	TotalPostcodes int      `json:"total_postcodes"`
	Postcodes      []string `json:"postcodes"`
}

// PostcodesResult lists the registered postcodes of a state.
type PostcodesResult struct {
	State          string   `json:"state"`
	Postcodes      []string `json:"postcodes"`
	TotalPostcodes int      `json:"total_postcodes"`
}

// HealthStatus is the health check payload.
type HealthStatus struct {
	Status           string   `json:"status"`
	Timestamp        string   `json:"timestamp"`
	Service          string   `json:"service"`
	AvailableSources []string `json:"available_sources"`
	BulkFeatures     []string `json:"bulk_features"`
	Cache            string   `json:"cache"`
}

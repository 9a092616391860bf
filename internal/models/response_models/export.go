package response_models

type ExportResult struct {
	Success     bool   `json:"success"`
	DownloadURL string `json:"download_url,omitempty"`
	FileName    string `json:"file_name,omitempty"`
	MimeType    string `json:"mime_type,omitempty"`
	Error       string `json:"error,omitempty"`
}

type ExportStatus struct {
	PlanID         string `json:"plan_id"`
	CanExportPDF   bool   `json:"can_export_pdf"`
	CanExportExcel bool   `json:"can_export_excel"`
	Used           int64  `json:"used"`
	Limit          *int64 `json:"limit,omitempty"` // nil = unlimited
	Remaining      *int64 `json:"remaining,omitempty"`
	Period         string `json:"period"`
}

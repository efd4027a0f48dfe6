package reminder

// ExportRecord represents a reminder record in JSONL export format.
// It is used for parsing export files during import.
type ExportRecord struct {
	// Header detection field - true only for header line
	RemindExport bool `json:"_remind_export,omitempty"`

	// Header fields (only present in header line)
	SchemaVersion string `json:"schema_version,omitempty"`
	ExportedAt    int64  `json:"exported_at,omitempty"`

	// Reminder fields
	ID         string  `json:"id"`
	Seq        int64   `json:"seq"` // IGNORED on import, the store assigns a new one
	AudioFile  string  `json:"audio_file"`
	AlarmTime  *string `json:"alarm_time"`
	Transcript string  `json:"transcript"`
	Status     Status  `json:"status"`
	CreatedAt  int64   `json:"created_at"`
	ResolvedAt *int64  `json:"resolved_at"`
}

// ToRecord converts an ExportRecord to a Record, cleaning the transcript.
func (r *ExportRecord) ToRecord() *Record {
	return &Record{
		ID:         r.ID,
		AudioFile:  r.AudioFile,
		AlarmTime:  r.AlarmTime,
		Transcript: CleanTranscript(r.Transcript),
		Status:     r.Status,
		CreatedAt:  r.CreatedAt,
		ResolvedAt: r.ResolvedAt,
	}
}

// RecordToExportRecord converts a Record to an ExportRecord for export.
func RecordToExportRecord(rec *Record) *ExportRecord {
	return &ExportRecord{
		ID:         rec.ID,
		Seq:        rec.Seq,
		AudioFile:  rec.AudioFile,
		AlarmTime:  rec.AlarmTime,
		Transcript: rec.Transcript,
		Status:     rec.Status,
		CreatedAt:  rec.CreatedAt,
		ResolvedAt: rec.ResolvedAt,
	}
}

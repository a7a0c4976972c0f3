// Package progress carries the typed event stream emitted by long-running
// scans and the relay that bridges a blocking worker to a live consumer.
package progress

type EventType string

const (
	EventCheckingTable EventType = "checking_table"
	EventChunkProgress EventType = "chunk_progress"
	EventTableComplete EventType = "table_complete"
	EventTableSkipped  EventType = "table_skipped"
	EventChecked       EventType = "checked"
	EventBatchProgress EventType = "batch_progress"
	EventStarting      EventType = "starting"
	EventHeartbeat     EventType = "heartbeat"
)

// Event is one tagged progress message. Counters are populated per variant;
// unused fields stay zero and are omitted on the wire.
type Event struct {
	Status         EventType `json:"status"`
	TableName      string    `json:"table_name,omitempty"`
	Chunk          int       `json:"chunk,omitempty"`
	TotalChunks    int       `json:"total_chunks,omitempty"`
	RecordsChecked int       `json:"records_checked,omitempty"`
	TotalRecords   int       `json:"total_records,omitempty"`
	OrphansInChunk int       `json:"orphans_in_chunk,omitempty"`
	TotalOrphans   int       `json:"total_orphans,omitempty"`
	OrphanedCount  int       `json:"orphaned_count"`
	Current        int       `json:"current,omitempty"`
	Total          int       `json:"total,omitempty"`
	Matched        bool      `json:"matched,omitempty"`
	Batch          int       `json:"batch,omitempty"`
	TotalBatches   int       `json:"total_batches,omitempty"`
	Updated        int       `json:"updated,omitempty"`
	Failed         int       `json:"failed,omitempty"`
	MissingInChunk int       `json:"missing_in_chunk,omitempty"`
	TotalMissing   int       `json:"total_missing,omitempty"`
}

// Sink receives events in emission order. A nil Sink is legal everywhere and
// means "discard".
type Sink func(Event)

func (s Sink) Emit(e Event) {
	if s != nil {
		s(e)
	}
}

func CheckingTable(table string) Event {
	return Event{Status: EventCheckingTable, TableName: table}
}

func ChunkProgress(table string, chunk, totalChunks, checked, totalRecords, inChunk, totalOrphans int) Event {
	return Event{
		Status:         EventChunkProgress,
		TableName:      table,
		Chunk:          chunk,
		TotalChunks:    totalChunks,
		RecordsChecked: checked,
		TotalRecords:   totalRecords,
		OrphansInChunk: inChunk,
		TotalOrphans:   totalOrphans,
	}
}

func TableComplete(table string, orphaned int) Event {
	return Event{Status: EventTableComplete, TableName: table, OrphanedCount: orphaned}
}

func TableSkipped(table string) Event {
	return Event{Status: EventTableSkipped, TableName: table}
}

func Checked(current, total int, matched bool) Event {
	return Event{Status: EventChecked, Current: current, Total: total, Matched: matched}
}

func BatchProgress(batch, totalBatches, updated, failed, current, total int) Event {
	return Event{
		Status:       EventBatchProgress,
		Batch:        batch,
		TotalBatches: totalBatches,
		Updated:      updated,
		Failed:       failed,
		Current:      current,
		Total:        total,
	}
}

func Starting(totalRecords, totalChunks int) Event {
	return Event{Status: EventStarting, TotalRecords: totalRecords, TotalChunks: totalChunks}
}

func DiffChunkProgress(chunk, totalChunks, checked, totalRecords, inChunk, totalMissing int) Event {
	return Event{
		Status:         EventChunkProgress,
		Chunk:          chunk,
		TotalChunks:    totalChunks,
		RecordsChecked: checked,
		TotalRecords:   totalRecords,
		MissingInChunk: inChunk,
		TotalMissing:   totalMissing,
	}
}

func Heartbeat() Event {
	return Event{Status: EventHeartbeat}
}

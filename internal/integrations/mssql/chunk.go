package mssql

// Chunk is one row window over a numbered scan. StartRow/EndRow are 1-based
// and half-open on the left: a chunk covers row_num > StartRow-1 and
// row_num <= EndRow.
type Chunk struct {
	Index    int
	StartRow int
	EndRow   int
}

// PlanChunks partitions totalRows into consecutive windows of at most size
// rows. The final chunk absorbs the remainder; zero rows plans zero chunks.
func PlanChunks(totalRows, size int) []Chunk {
	if totalRows <= 0 || size <= 0 {
		return nil
	}
	n := TotalChunks(totalRows, size)
	chunks := make([]Chunk, 0, n)
	for i := 0; i < n; i++ {
		start := i*size + 1
		end := start + size - 1
		if end > totalRows {
			end = totalRows
		}
		chunks = append(chunks, Chunk{Index: i + 1, StartRow: start, EndRow: end})
	}
	return chunks
}

func TotalChunks(totalRows, size int) int {
	if totalRows <= 0 || size <= 0 {
		return 0
	}
	return (totalRows + size - 1) / size
}

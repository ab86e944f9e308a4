package repository

import (
	"bytes"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/jengzang/urban-twin-go/internal/models"
)

// encodeResults packs run results as zstd-compressed msgpack. Empty
// results encode to nil so the column stays NULL.
func encodeResults(results map[string]models.AnalysisResult) ([]byte, error) {
	if len(results) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	zw, err := zstd.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	if err := msgpack.NewEncoder(zw).Encode(results); err != nil {
		zw.Close()
		return nil, fmt.Errorf("failed to encode results: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to compress results: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeResults(b []byte) (map[string]models.AnalysisResult, error) {
	if len(b) == 0 {
		return nil, nil
	}

	zr, err := zstd.NewReader(bytes.NewReader(b), zstd.WithDecoderConcurrency(0))
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var results map[string]models.AnalysisResult
	if err := msgpack.NewDecoder(zr).Decode(&results); err != nil {
		return nil, fmt.Errorf("failed to decode results: %w", err)
	}
	return results, nil
}

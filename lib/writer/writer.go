// Copyright 2025 Antfly, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package writer serializes chunks as JSON lines.
package writer

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/bytedance/sonic/decoder"
	"github.com/bytedance/sonic/encoder"

	"github.com/antflydb/topicseg/lib/builder"
)

// Record is the on-disk representation of a single chunk, one per line.
type Record struct {
	Text      string   `json:"text"`
	Sentences []string `json:"sentences"`
}

// Write encodes one Record per chunk to w.
func Write(w io.Writer, chunks []builder.Chunk) error {
	bw := bufio.NewWriter(w)
	enc := encoder.NewStreamEncoder(bw)
	for _, chunk := range chunks {
		rec := Record{Text: chunk.Text(), Sentences: chunk.Sentences}
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("encoding chunk record: %w", err)
		}
	}
	return bw.Flush()
}

// WriteFile writes chunks to path, creating or truncating it.
func WriteFile(path string, chunks []builder.Chunk) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating chunk output %s: %w", path, err)
	}
	if err := Write(f, chunks); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Read decodes chunk records from r until EOF.
func Read(r io.Reader) ([]Record, error) {
	dec := decoder.NewStreamDecoder(r)
	var records []Record
	for {
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			if err == io.EOF {
				return records, nil
			}
			return nil, fmt.Errorf("decoding chunk record: %w", err)
		}
		records = append(records, rec)
	}
}

// ReadFile reads chunk records from the JSONL file at path.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening chunk file %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return Read(f)
}

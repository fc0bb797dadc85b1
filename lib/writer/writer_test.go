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

package writer

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/antflydb/topicseg/lib/builder"
)

func TestWriteReadRoundTrip(t *testing.T) {
	chunks := []builder.Chunk{
		{Sentences: []string{"A.", "B."}},
		{Sentences: []string{"C."}},
	}

	path := filepath.Join(t.TempDir(), "out.chunks.jsonl")
	require.NoError(t, WriteFile(path, chunks))

	records, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "A.B.", records[0].Text)
	require.Equal(t, []string{"A.", "B."}, records[0].Sentences)
	require.Equal(t, "C.", records[1].Text)
	require.Equal(t, []string{"C."}, records[1].Sentences)
}

func TestWriteOneRecordPerLine(t *testing.T) {
	chunks := []builder.Chunk{
		{Sentences: []string{"first"}},
		{Sentences: []string{"second", "third"}},
	}

	var sb strings.Builder
	require.NoError(t, Write(&sb, chunks))

	lines := strings.Split(strings.TrimRight(sb.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		require.True(t, strings.HasPrefix(line, "{"), "each line must be a standalone JSON object")
	}
}

func TestWriteEmpty(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, Write(&sb, nil))
	require.Empty(t, sb.String())
}

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

// Package textproc turns raw text into an ordered sentence stream.
package textproc

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// Sentences end after Japanese or ASCII terminal punctuation, optionally
// followed by a single space. Go's regexp has no lookbehind, so the
// terminator is captured and re-attached to the preceding sentence.
var sentenceEndRegex = regexp.MustCompile(`([。．！？!?.]\s?)`)

// SplitSentences splits text into trimmed, non-empty sentences in order.
func SplitSentences(text string) []string {
	if text == "" {
		return nil
	}

	parts := sentenceEndRegex.Split(text, -1)
	terms := sentenceEndRegex.FindAllString(text, -1)

	var sentences []string
	for i, part := range parts {
		sent := part
		if i < len(terms) {
			sent += terms[i]
		}
		sent = strings.TrimSpace(sent)
		if sent != "" {
			sentences = append(sentences, sent)
		}
	}
	return sentences
}

// ReadSentences reads r line by line and returns all sentences in input order.
func ReadSentences(r io.Reader) ([]string, error) {
	var sentences []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		sentences = append(sentences, SplitSentences(scanner.Text())...)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return sentences, nil
}

// ReadSentencesFile reads the UTF-8 text file at path and splits it into sentences.
func ReadSentencesFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening input %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return ReadSentences(f)
}

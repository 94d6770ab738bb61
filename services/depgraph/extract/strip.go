// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package extract

import (
	"strings"

	"github.com/AleutianAI/depgraph/services/depgraph/lang"
)

// commentStripper blanks comment spans line by line.
//
// Blanked bytes become spaces so column positions survive. Block comments
// carry over between lines; string literals do not.
type commentStripper struct {
	profile *lang.Profile

	// block is the index into profile.BlockComments of the open block,
	// or -1 outside a block comment.
	block int
}

func newCommentStripper(p *lang.Profile) *commentStripper {
	return &commentStripper{profile: p, block: -1}
}

// strip returns line with comment spans replaced by spaces.
func (s *commentStripper) strip(line string) string {
	if len(s.profile.LineComments) == 0 && len(s.profile.BlockComments) == 0 {
		return line
	}

	out := []byte(line)
	blank := func(from, to int) {
		for i := from; i < to && i < len(out); i++ {
			out[i] = ' '
		}
	}

	var quote byte
	i := 0
	for i < len(line) {
		if s.block >= 0 {
			closer := s.profile.BlockComments[s.block].Close
			end := strings.Index(line[i:], closer)
			if end < 0 {
				blank(i, len(line))
				return string(out)
			}
			blank(i, i+end+len(closer))
			i += end + len(closer)
			s.block = -1
			continue
		}

		c := line[i]
		if quote != 0 {
			switch c {
			case '\\':
				i += 2
				continue
			case quote:
				quote = 0
			}
			i++
			continue
		}

		if opened := s.openBlock(line, i); opened >= 0 {
			s.block = opened
			opener := s.profile.BlockComments[opened].Open
			blank(i, i+len(opener))
			i += len(opener)
			continue
		}

		if s.lineCommentAt(line, i) {
			blank(i, len(line))
			return string(out)
		}

		if strings.IndexByte(s.profile.Quotes, c) >= 0 {
			quote = c
		}
		i++
	}
	return string(out)
}

func (s *commentStripper) openBlock(line string, i int) int {
	for idx, d := range s.profile.BlockComments {
		if strings.HasPrefix(line[i:], d.Open) {
			return idx
		}
	}
	return -1
}

func (s *commentStripper) lineCommentAt(line string, i int) bool {
	for _, marker := range s.profile.LineComments {
		if !strings.HasPrefix(line[i:], marker) {
			continue
		}
		if s.profile.CommentNeedsSpace && i > 0 && line[i-1] != ' ' && line[i-1] != '\t' {
			continue
		}
		return true
	}
	return false
}

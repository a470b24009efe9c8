package markdown

import "strings"

// ImageRef is an inline image (`![alt](destination)`) found in markdown source.
//
// Start and End are byte offsets into the scanned source, End exclusive.
// Destinations are taken verbatim, so upload placeholders such as
// "Uploading cat.png..." (which CommonMark would reject because of the spaces)
// are still reported.
type ImageRef struct {
	Start       int
	End         int
	Alt         string
	Destination string
}

// ScanImages returns every inline image in source, in document order.
//
// Fenced code blocks, indented code blocks and inline code spans are skipped.
func ScanImages(source string) []ImageRef {
	var out []ImageRef

	inCodeBlock := false
	activeFence := ""
	lineStart := 0
	for lineStart <= len(source) {
		lineEnd := strings.IndexByte(source[lineStart:], '\n')
		if lineEnd < 0 {
			lineEnd = len(source)
		} else {
			lineEnd += lineStart
		}
		line := source[lineStart:lineEnd]

		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "```"):
			inCodeBlock, activeFence = toggleFencedBlock(inCodeBlock, activeFence, "```")
		case strings.HasPrefix(trimmed, "~~~"):
			inCodeBlock, activeFence = toggleFencedBlock(inCodeBlock, activeFence, "~~~")
		case inCodeBlock || strings.HasPrefix(line, "    ") || strings.HasPrefix(line, "\t"):
		default:
			for _, ref := range scanLineImages(blankInlineCodeSpans(line)) {
				ref.Start += lineStart
				ref.End += lineStart
				out = append(out, ref)
			}
		}

		if lineEnd == len(source) {
			break
		}
		lineStart = lineEnd + 1
	}
	return out
}

func scanLineImages(line string) []ImageRef {
	var out []ImageRef
	for i := 0; i+1 < len(line); i++ {
		if line[i] != '!' || line[i+1] != '[' {
			continue
		}
		closeBracket := strings.IndexByte(line[i+2:], ']')
		if closeBracket < 0 {
			continue
		}
		closeBracket += i + 2
		if closeBracket+1 >= len(line) || line[closeBracket+1] != '(' {
			continue
		}
		end := strings.IndexByte(line[closeBracket+2:], ')')
		if end < 0 {
			continue
		}
		end += closeBracket + 2

		out = append(out, ImageRef{
			Start:       i,
			End:         end + 1,
			Alt:         line[i+2 : closeBracket],
			Destination: line[closeBracket+2 : end],
		})
		i = end
	}
	return out
}

func toggleFencedBlock(inCodeBlock bool, activeFence string, fence string) (bool, string) {
	if !inCodeBlock {
		return true, fence
	}
	if activeFence == fence {
		return false, ""
	}
	return inCodeBlock, activeFence
}

// blankInlineCodeSpans replaces closed code spans (delimiters included) with
// spaces so byte offsets into the line stay valid.
func blankInlineCodeSpans(s string) string {
	if !strings.Contains(s, "`") {
		return s
	}

	b := []byte(s)
	for i := 0; i < len(b); {
		if b[i] != '`' {
			i++
			continue
		}

		run := 1
		for i+run < len(b) && b[i+run] == '`' {
			run++
		}

		marker := strings.Repeat("`", run)
		closeRel := strings.Index(string(b[i+run:]), marker)
		if closeRel == -1 {
			i += run
			continue
		}

		end := i + run + closeRel + run
		for j := i; j < end; j++ {
			b[j] = ' '
		}
		i = end
	}
	return string(b)
}

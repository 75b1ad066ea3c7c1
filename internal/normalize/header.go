package normalize

import "strings"

// HeaderParser extracts the accession and description from an old-format
// header line of one project. Accessions are the project id followed by
// 5 to 8 digits, a dot and a version digit; the description follows a pipe.
// Construct one parser per project and reuse it for every header line.
type HeaderParser struct {
	project string
}

// NewHeaderParser returns a parser for headers belonging to project.
func NewHeaderParser(project string) *HeaderParser {
	return &HeaderParser{project: project}
}

// Parse returns the accession and trimmed description encoded in line, or a
// *ParseError when the line does not match the project's accession shape.
// A leading ">" marker and any prefix before the accession (such as legacy
// "gi|...|gb|" fields) are tolerated.
func (p *HeaderParser) Parse(line string) (accession, description string, err error) {
	i := strings.Index(line, p.project)
	if i < 0 {
		return "", "", &ParseError{Project: p.project, Line: line, Reason: "project id not found"}
	}

	j := i + len(p.project)
	digits := 0
	for j < len(line) && isDigit(line[j]) {
		j++
		digits++
	}
	if digits < 5 || digits > 8 {
		return "", "", &ParseError{Project: p.project, Line: line, Reason: "expected 5 to 8 digits after project id"}
	}
	if j >= len(line) || line[j] != '.' {
		return "", "", &ParseError{Project: p.project, Line: line, Reason: "expected version separator"}
	}
	j++
	if j >= len(line) || !isDigit(line[j]) {
		return "", "", &ParseError{Project: p.project, Line: line, Reason: "expected version digit"}
	}
	j++

	accession = line[i:j]
	if j >= len(line) || line[j] != '|' {
		return "", "", &ParseError{Project: p.project, Line: line, Reason: "expected pipe after accession"}
	}
	description = strings.TrimSpace(line[j+1:])
	return accession, description, nil
}

// ParseError reports a header line that does not match the project's
// accession pattern.
type ParseError struct {
	Project string
	Line    string
	Reason  string
}

func (e *ParseError) Error() string {
	line := e.Line
	if len(line) > 60 {
		line = line[:60] + "..."
	}
	return "normalize: header does not match project " + e.Project + ": " + e.Reason + ": " + line
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

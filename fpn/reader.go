package fpn

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xinfuwcx/DeepCAD-sub015/diag"
)

// Scanner yields one typed Record per call to Scan, in file order.
// Blank lines and $ section comments are skipped. A line that names
// a known keyword but fails to parse is reported as UnparsedLine and
// skipped; scanning always continues to the next line.
type Scanner struct {
	sc   *bufio.Scanner
	line int
	rec  Record
	rep  *diag.Report

	// Open MSETE/MSETN keyword, so bare numeric continuation lines
	// can be attributed to the right member list.
	memberKey string

	reported bool // scanner failure already added to the report
}

func NewScanner(r io.Reader, rep *diag.Report) *Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Scanner{sc: sc, rep: rep}
}

// Parse decodes data with the candidate encodings and collects every
// record. Only an EncodingError is fatal.
func Parse(data []byte, candidates []string, maxRatio float64, rep *diag.Report) ([]Record, string, error) {
	text, chosen, err := Decode(data, candidates, maxRatio)
	if err != nil {
		return nil, "", err
	}
	var recs []Record
	s := NewScanner(strings.NewReader(text), rep)
	for s.Scan() {
		recs = append(recs, s.Record())
	}
	return recs, chosen, nil
}

func (s *Scanner) Record() Record { return s.rec }

func (s *Scanner) Scan() bool {
	for s.sc.Scan() {
		s.line++
		raw := s.sc.Text()
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || strings.HasPrefix(trimmed, "$") {
			continue
		}
		fields := splitFields(raw)
		key := strings.ToUpper(fields[0])
		rec, err := s.parse(key, fields[1:])
		if err != nil {
			s.rep.Addf(diag.UnparsedLine, s.line, "%s record: %v", key, err)
			continue
		}
		if rec == nil {
			continue
		}
		s.rec = rec
		return true
	}
	// A line over the buffer limit stops bufio.Scanner without an
	// explicit EOF; everything after it is lost, which must not
	// pass silently.
	if err := s.sc.Err(); err != nil && !s.reported {
		s.reported = true
		s.rep.Addf(diag.UnparsedLine, s.line+1, "scan aborted, rest of file skipped: %v", err)
	}
	return false
}

// splitFields splits a comma-delimited line and trims surrounding
// whitespace; empty trailing fields stay in place and read as unset.
func splitFields(line string) []string {
	parts := strings.Split(line, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

func (s *Scanner) parse(key string, f []string) (Record, error) {
	switch key {
	case "VER":
		s.memberKey = ""
		return Version{Value: field(f, 0), Line: s.line}, nil
	case "UNIT":
		s.memberKey = ""
		return Unit{Fields: f, Line: s.line}, nil
	case "OFFSET":
		s.memberKey = ""
		return s.parseOffset(f)
	case "NODE":
		s.memberKey = ""
		return s.parseNode(f)
	case "TETRA":
		s.memberKey = ""
		return s.parseElement(key, f, 4)
	case "HEXA":
		s.memberKey = ""
		return s.parseElement(key, f, 8)
	case "PENTA":
		s.memberKey = ""
		return s.parseElement(key, f, 6)
	case "TRIA":
		s.memberKey = ""
		return s.parseElement(key, f, 3)
	case "LINE":
		s.memberKey = ""
		return s.parseElement(key, f, 2)
	case "MATGEN":
		s.memberKey = ""
		return s.parseMaterial(f)
	case "MNLMC":
		s.memberKey = ""
		return s.parseMohrCoulomb(f)
	case "PETRUSS":
		s.memberKey = ""
		return s.parseTrussSection(f)
	case "PSTRST":
		s.memberKey = ""
		return s.parsePrestress(f)
	case "MSET", "BSET":
		s.memberKey = ""
		return s.parseSetHeader(key, f)
	case "MSETE", "MSETN":
		s.memberKey = key
		return SetMembers{Key: key, IDs: intFields(f), Line: s.line}, nil
	case "CONST":
		s.memberKey = ""
		return s.parseConstraint(f)
	case "STAGE":
		s.memberKey = ""
		return s.parseStage(f)
	case "MADD", "MDEL", "LADD", "LDEL", "BADD", "BDEL":
		s.memberKey = ""
		return s.parseGroupCommand(key, f)
	default:
		if _, numeric := atoi(key); numeric && s.memberKey != "" {
			// Continuation of the open member list.
			ids := intFields(append([]string{key}, f...))
			return SetMembers{Key: s.memberKey, IDs: ids, Line: s.line}, nil
		}
		return Raw{Key: key, Fields: f, Line: s.line}, nil
	}
}

func (s *Scanner) parseNode(f []string) (Record, error) {
	id, ok := atoi(field(f, 0))
	if !ok {
		return nil, fmt.Errorf("bad id %q", field(f, 0))
	}
	x, okx := atof(field(f, 1))
	y, oky := atof(field(f, 2))
	z, okz := atof(field(f, 3))
	if !okx || !oky || !okz {
		return nil, fmt.Errorf("bad coordinates for node %d", id)
	}
	sys, _ := atoi(field(f, 4))
	return Node{ID: id, X: x, Y: y, Z: z, Sys: sys, Line: s.line}, nil
}

func (s *Scanner) parseElement(key string, f []string, nNodes int) (Record, error) {
	id, ok := atoi(field(f, 0))
	if !ok {
		return nil, fmt.Errorf("bad id %q", field(f, 0))
	}
	prop, ok := atoi(field(f, 1))
	if !ok {
		return nil, fmt.Errorf("bad property id %q", field(f, 1))
	}
	nodes := make([]int, 0, nNodes)
	for i := 0; i < nNodes; i++ {
		n, ok := atoi(field(f, 2+i))
		if !ok {
			return nil, fmt.Errorf("element %d: bad node field %d", id, 2+i)
		}
		nodes = append(nodes, n)
	}
	return Element{Key: key, ID: id, Prop: prop, Nodes: nodes, Line: s.line}, nil
}

func (s *Scanner) parseMaterial(f []string) (Record, error) {
	id, ok := atoi(field(f, 0))
	if !ok {
		return nil, fmt.Errorf("bad id %q", field(f, 0))
	}
	e, _ := atof(field(f, 1))
	nu, _ := atof(field(f, 4))
	gamma, _ := atof(field(f, 5))
	name := field(f, 6)
	if name == "" {
		name = fmt.Sprintf("MAT_%d", id)
	}
	return Material{ID: id, Name: name, E: e, Nu: nu, Gamma: gamma, Line: s.line}, nil
}

func (s *Scanner) parseMohrCoulomb(f []string) (Record, error) {
	id, ok := atoi(field(f, 0))
	if !ok {
		return nil, fmt.Errorf("bad id %q", field(f, 0))
	}
	phi, _ := atof(field(f, 1))
	c, _ := atof(field(f, 4))
	return MohrCoulomb{ID: id, Phi: phi, Cohesion: c, Line: s.line}, nil
}

func (s *Scanner) parseTrussSection(f []string) (Record, error) {
	prop, ok := atoi(field(f, 0))
	if !ok {
		return nil, fmt.Errorf("bad property id %q", field(f, 0))
	}
	mat, _ := atoi(field(f, 3))
	area, _ := atof(field(f, 4))
	return TrussSection{Prop: prop, Name: field(f, 1), Mat: mat, Area: area, Line: s.line}, nil
}

func (s *Scanner) parsePrestress(f []string) (Record, error) {
	set, ok := atoi(field(f, 0))
	if !ok {
		return nil, fmt.Errorf("bad set id %q", field(f, 0))
	}
	elem, ok := atoi(field(f, 1))
	if !ok {
		return nil, fmt.Errorf("bad element id %q", field(f, 1))
	}
	force, ok := atof(field(f, 2))
	if !ok {
		return nil, fmt.Errorf("bad force %q", field(f, 2))
	}
	return Prestress{Set: set, Elem: elem, Force: force, Line: s.line}, nil
}

func (s *Scanner) parseSetHeader(key string, f []string) (Record, error) {
	id, ok := atoi(field(f, 0))
	if !ok {
		return nil, fmt.Errorf("bad id %q", field(f, 0))
	}
	return SetHeader{Key: key, ID: id, Name: field(f, 1), Line: s.line}, nil
}

func (s *Scanner) parseConstraint(f []string) (Record, error) {
	node, ok := atoi(field(f, 0))
	if !ok {
		return nil, fmt.Errorf("bad node id %q", field(f, 0))
	}
	return Constraint{Node: node, DOF: field(f, 1), Line: s.line}, nil
}

func (s *Scanner) parseStage(f []string) (Record, error) {
	id, ok := atoi(field(f, 0))
	if !ok {
		return nil, fmt.Errorf("bad id %q", field(f, 0))
	}
	typ, _ := atoi(field(f, 1))
	name := field(f, 2)
	if name == "" {
		name = fmt.Sprintf("Stage %d", id)
	}
	return Stage{ID: id, Type: typ, Name: name, Line: s.line}, nil
}

func (s *Scanner) parseGroupCommand(verb string, f []string) (Record, error) {
	stage, ok := atoi(field(f, 0))
	if !ok {
		return nil, fmt.Errorf("bad stage id %q", field(f, 0))
	}
	// Field 1 is a member count; the ids that follow are
	// authoritative, the count is not re-checked.
	return GroupCommand{Verb: verb, Stage: stage, IDs: intFields(f[min(2, len(f)):]), Line: s.line}, nil
}

func (s *Scanner) parseOffset(f []string) (Record, error) {
	x, okx := atof(field(f, 0))
	y, oky := atof(field(f, 1))
	z, okz := atof(field(f, 2))
	if !okx || !oky || !okz {
		return nil, fmt.Errorf("bad offset fields")
	}
	return Offset{X: x, Y: y, Z: z, Line: s.line}, nil
}

func field(f []string, i int) string {
	if i < len(f) {
		return f[i]
	}
	return ""
}

func intFields(f []string) []int {
	ids := make([]int, 0, len(f))
	for _, s := range f {
		if n, ok := atoi(s); ok && n > 0 {
			ids = append(ids, n)
		}
	}
	return ids
}

func atoi(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

func atof(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

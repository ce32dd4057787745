// Package fpn reads the record-oriented model files written by MIDAS
// GTS NX style preprocessors. Lines are comma-delimited with a
// keyword before the first comma; line tolerance matters more than
// strictness here, so a malformed line is reported and skipped while
// unknown keywords are carried through as opaque records.
package fpn

// Record is one typed line of the source file. Every concrete record
// carries its 1-based source line for diagnostics.
type Record interface {
	Keyword() string
	SrcLine() int
}

// Raw preserves a record with an unrecognized keyword so downstream
// consumers can still pick it up without a second scan of the file.
type Raw struct {
	Key    string
	Fields []string
	Line   int
}

func (r Raw) Keyword() string { return r.Key }
func (r Raw) SrcLine() int    { return r.Line }

// Version is the VER header record.
type Version struct {
	Value string
	Line  int
}

func (r Version) Keyword() string { return "VER" }
func (r Version) SrcLine() int    { return r.Line }

// Unit is the UNIT header record; values are carried verbatim, no
// unit conversion happens in this core.
type Unit struct {
	Fields []string
	Line   int
}

func (r Unit) Keyword() string { return "UNIT" }
func (r Unit) SrcLine() int    { return r.Line }

// Offset is an explicit coordinate-offset header record. When absent
// the assembler may derive an offset from the node cloud instead.
type Offset struct {
	X, Y, Z float64
	Line    int
}

func (r Offset) Keyword() string { return "OFFSET" }
func (r Offset) SrcLine() int    { return r.Line }

// Node is a NODE record: id, x, y, z and an optional coordinate
// system id.
type Node struct {
	ID      int
	X, Y, Z float64
	Sys     int
	Line    int
}

func (r Node) Keyword() string { return "NODE" }
func (r Node) SrcLine() int    { return r.Line }

// Element covers the TETRA/HEXA/PENTA/TRIA/LINE family. Prop is the
// material id for solid and shell records and the section property id
// for LINE records; the distinction is resolved during assembly.
type Element struct {
	Key   string
	ID    int
	Prop  int
	Nodes []int
	Line  int
}

func (r Element) Keyword() string { return r.Key }
func (r Element) SrcLine() int    { return r.Line }

// Material is a MATGEN record: id, name, elastic modulus, Poisson
// ratio and unit weight in file units.
type Material struct {
	ID    int
	Name  string
	E     float64
	Nu    float64
	Gamma float64
	Line  int
}

func (r Material) Keyword() string { return "MATGEN" }
func (r Material) SrcLine() int    { return r.Line }

// MohrCoulomb is an MNLMC record overlaying strength parameters onto
// a previously declared material.
type MohrCoulomb struct {
	ID       int
	Phi      float64
	Cohesion float64
	Line     int
}

func (r MohrCoulomb) Keyword() string { return "MNLMC" }
func (r MohrCoulomb) SrcLine() int    { return r.Line }

// TrussSection is a PETRUSS record: section property id, name,
// material id and cross-sectional area. LINE elements whose property
// id has a PETRUSS record are the anchor/strut elements.
type TrussSection struct {
	Prop int
	Name string
	Mat  int
	Area float64
	Line int
}

func (r TrussSection) Keyword() string { return "PETRUSS" }
func (r TrussSection) SrcLine() int    { return r.Line }

// Prestress is a PSTRST record assigning a pretension force to one
// element within a load set.
type Prestress struct {
	Set   int
	Elem  int
	Force float64
	Line  int
}

func (r Prestress) Keyword() string { return "PSTRST" }
func (r Prestress) SrcLine() int    { return r.Line }

// SetHeader opens a named set: MSET for mesh sets, BSET for boundary
// sets. Member records that follow attach to the most recent header.
type SetHeader struct {
	Key  string
	ID   int
	Name string
	Line int
}

func (r SetHeader) Keyword() string { return r.Key }
func (r SetHeader) SrcLine() int    { return r.Line }

// SetMembers lists element (MSETE) or node (MSETN) members of the
// open mesh set. Long member lists continue across lines.
type SetMembers struct {
	Key  string
	IDs  []int
	Line int
}

func (r SetMembers) Keyword() string { return r.Key }
func (r SetMembers) SrcLine() int    { return r.Line }

// Constraint is a CONST record inside a BSET: a node id and its
// fixed-degree-of-freedom mask, carried as the raw mask string.
type Constraint struct {
	Node int
	DOF  string
	Line int
}

func (r Constraint) Keyword() string { return "CONST" }
func (r Constraint) SrcLine() int    { return r.Line }

// Stage is a STAGE record declaring one construction stage.
type Stage struct {
	ID   int
	Type int
	Name string
	Line int
}

func (r Stage) Keyword() string { return "STAGE" }
func (r Stage) SrcLine() int    { return r.Line }

// GroupCommand is one of the six per-stage activation commands:
// MADD/MDEL (material sets), LADD/LDEL (load sets), BADD/BDEL
// (boundary sets). The second field names the stage it applies to.
type GroupCommand struct {
	Verb  string
	Stage int
	IDs   []int
	Line  int
}

func (r GroupCommand) Keyword() string { return r.Verb }
func (r GroupCommand) SrcLine() int    { return r.Line }

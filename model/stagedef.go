package model

// Category is the activation category a stage command acts in.
type Category uint8

const (
	Materials Category = iota
	Loads
	Boundaries
)

func (c Category) String() string {
	return [...]string{"Materials", "Loads", "Boundaries"}[c]
}

// Verb is the direction of a stage command.
type Verb uint8

const (
	Add Verb = iota
	Remove
)

func (v Verb) String() string {
	return [...]string{"Add", "Remove"}[v]
}

// VerbForKeyword maps the six command keywords onto category and
// direction.
func VerbForKeyword(kw string) (Category, Verb, bool) {
	switch kw {
	case "MADD":
		return Materials, Add, true
	case "MDEL":
		return Materials, Remove, true
	case "LADD":
		return Loads, Add, true
	case "LDEL":
		return Loads, Remove, true
	case "BADD":
		return Boundaries, Add, true
	case "BDEL":
		return Boundaries, Remove, true
	}
	return 0, 0, false
}

// StageCommand is one activation command attributed to a stage, kept
// in file order. Line is carried for diagnostics on unknown groups.
type StageCommand struct {
	Category Category
	Verb     Verb
	GroupIDs []int
	Line     int
}

// StageDef is one construction stage as declared in the file, with
// its commands in declaration order.
type StageDef struct {
	ID       int
	Type     int
	Name     string
	Commands []StageCommand
}

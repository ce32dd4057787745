package params

import (
	"fmt"

	"github.com/ghodss/yaml"

	"github.com/xinfuwcx/DeepCAD-sub015/anchors"
	"github.com/xinfuwcx/DeepCAD-sub015/stage"
)

// Parameters obtained from the YAML analysis file
type AnalysisParameters struct {
	Title               string                 `yaml:"Title"`
	Encodings           []string               `yaml:"Encodings"`
	MaxReplacementRatio float64                `yaml:"MaxReplacementRatio"`
	AutoOffset          bool                   `yaml:"AutoOffset"`
	Baseline            string                 `yaml:"Baseline"` // "empty" or "all-active"
	Soil                anchors.CategoryConfig `yaml:"Soil"`
	Wall                anchors.CategoryConfig `yaml:"Wall"`
	Workers             int                    `yaml:"Workers"`
}

func NewAnalysisParameters() *AnalysisParameters {
	def := anchors.DefaultConfig()
	return &AnalysisParameters{
		Title:    "Staged Excavation",
		Baseline: stage.EmptyStart.String(),
		Soil:     def.Soil,
		Wall:     def.Wall,
		Workers:  def.Workers,
	}
}

func (ap *AnalysisParameters) Parse(data []byte) error {
	if err := yaml.Unmarshal(data, ap); err != nil {
		return err
	}
	switch ap.Baseline {
	case "", stage.EmptyStart.String(), stage.AllActive.String():
	default:
		return fmt.Errorf("unknown baseline %q", ap.Baseline)
	}
	return nil
}

// BaselineValue maps the textual baseline back onto its enum.
func (ap *AnalysisParameters) BaselineValue() stage.Baseline {
	if ap.Baseline == stage.AllActive.String() {
		return stage.AllActive
	}
	return stage.EmptyStart
}

// AnchorConfig assembles the search configuration for the constraint
// generator.
func (ap *AnalysisParameters) AnchorConfig() anchors.Config {
	return anchors.Config{Soil: ap.Soil, Wall: ap.Wall, Workers: ap.Workers}
}

func (ap *AnalysisParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ap.Title)
	fmt.Printf("[%s]\t\t= Baseline\n", ap.Baseline)
	fmt.Printf("%v\t\t= AutoOffset\n", ap.AutoOffset)
	fmt.Printf("%8.5f\t= Soil Search Radius\n", ap.Soil.SearchRadius)
	fmt.Printf("[%d]\t\t\t= Soil Max Neighbors\n", ap.Soil.MaxNeighbors)
	fmt.Printf("%8.5f\t= Wall Search Radius\n", ap.Wall.SearchRadius)
	fmt.Printf("[%d]\t\t\t= Wall Max Neighbors\n", ap.Wall.MaxNeighbors)
	fmt.Printf("[%d]\t\t\t= Workers\n", ap.Workers)
}

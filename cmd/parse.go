/*
Copyright © 2024 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/xinfuwcx/DeepCAD-sub015/diag"
	"github.com/xinfuwcx/DeepCAD-sub015/model"
)

// parseCmd represents the parse command
var parseCmd = &cobra.Command{
	Use:   "parse <model.fpn>",
	Short: "Parse an FPN model file and report on its contents",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ap, err := loadParams(cmd)
		if err != nil {
			fail(err)
		}
		ap.Print()

		rep := diag.NewReport()
		mesh, defs, enc, err := buildModel(args[0], ap, rep)
		if err != nil {
			fail(err)
		}

		fmt.Printf("decoded with [%s]\n", enc)
		fmt.Println(mesh.Stats())
		lo, hi := mesh.BoundingBox()
		fmt.Printf("bounding box (%.3f, %.3f, %.3f) .. (%.3f, %.3f, %.3f)\n",
			lo[0], lo[1], lo[2], hi[0], hi[1], hi[2])
		fmt.Printf("%d stages, offset (%.3f, %.3f, %.3f)\n",
			len(defs), mesh.Offset[0], mesh.Offset[1], mesh.Offset[2])
		fmt.Println(rep)

		if out, _ := cmd.Flags().GetString("json"); out != "" {
			if err := writeMeshJSON(out, mesh); err != nil {
				fail(err)
			}
			fmt.Println("model written to", out)
		}
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.Flags().String("json", "", "write the assembled model to a JSON file")
}

type meshExport struct {
	Version   string             `json:"version,omitempty"`
	Units     []string           `json:"units,omitempty"`
	Offset    [3]float64         `json:"offset"`
	Nodes     []model.Node       `json:"nodes"`
	Elements  []elemExport       `json:"elements"`
	Materials []model.Material   `json:"materials,omitempty"`
	Sets      []setExport        `json:"sets,omitempty"`
	Prestress map[string]float64 `json:"prestress,omitempty"`
}

type elemExport struct {
	ID    int    `json:"id"`
	Type  string `json:"type"`
	Mat   int    `json:"mat"`
	Nodes []int  `json:"nodes"`
}

type setExport struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Elems []int  `json:"elems,omitempty"`
	Nodes []int  `json:"nodes,omitempty"`
}

func writeMeshJSON(path string, m *model.Mesh) error {
	ex := meshExport{
		Version: m.Version,
		Units:   m.Units,
		Offset:  m.Offset,
	}
	for _, id := range m.NodeIDs() {
		ex.Nodes = append(ex.Nodes, m.Nodes[id])
	}
	for _, id := range m.ElementIDs() {
		e := m.Elements[id]
		ex.Elements = append(ex.Elements, elemExport{
			ID: e.ID, Type: e.Type.String(), Mat: e.Mat, Nodes: e.Nodes,
		})
	}
	for _, mat := range m.Materials {
		ex.Materials = append(ex.Materials, mat)
	}
	sort.Slice(ex.Materials, func(i, j int) bool { return ex.Materials[i].ID < ex.Materials[j].ID })
	for _, s := range m.Sets {
		ex.Sets = append(ex.Sets, setExport{
			ID: s.ID, Name: s.Name, Kind: s.Kind.String(),
			Elems: s.Elems.Sorted(), Nodes: s.Nodes.Sorted(),
		})
	}
	sort.Slice(ex.Sets, func(i, j int) bool { return ex.Sets[i].ID < ex.Sets[j].ID })
	if len(m.Prestress) > 0 {
		ex.Prestress = make(map[string]float64, len(m.Prestress))
		for eid, f := range m.Prestress {
			ex.Prestress[fmt.Sprint(eid)] = f
		}
	}

	data, err := json.MarshalIndent(ex, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

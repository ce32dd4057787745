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

	"github.com/spf13/cobra"

	"github.com/xinfuwcx/DeepCAD-sub015/diag"
	"github.com/xinfuwcx/DeepCAD-sub015/stage"
)

// stagesCmd represents the stages command
var stagesCmd = &cobra.Command{
	Use:   "stages <model.fpn>",
	Short: "Fold the construction stages and print each activation snapshot",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ap, err := loadParams(cmd)
		if err != nil {
			fail(err)
		}

		rep := diag.NewReport()
		mesh, defs, _, err := buildModel(args[0], ap, rep)
		if err != nil {
			fail(err)
		}

		tl := stage.Build(mesh, defs, stage.Config{Baseline: ap.BaselineValue()}, rep)
		fmt.Printf("baseline [%s], %d stages\n", ap.BaselineValue(), tl.Len())
		for i := 0; i < tl.Len(); i++ {
			s := tl.At(i)
			fmt.Printf("stage %d %-24q materials=%v loads=%v boundaries=%v\n",
				s.Stage, s.Name,
				s.Materials.Sorted(), s.Loads.Sorted(), s.Boundaries.Sorted())
		}

		if sid, _ := cmd.Flags().GetInt("elements"); sid != 0 {
			ids, err := tl.ActiveElements(sid)
			if err != nil {
				fail(err)
			}
			fmt.Printf("stage %d active elements (%d): %v\n", sid, len(ids), ids)
		}
		fmt.Println(rep)

		if out, _ := cmd.Flags().GetString("json"); out != "" {
			if err := writeTimelineJSON(out, tl); err != nil {
				fail(err)
			}
			fmt.Println("timeline written to", out)
		}
	},
}

func init() {
	rootCmd.AddCommand(stagesCmd)
	stagesCmd.Flags().IntP("elements", "e", 0, "also print the active element ids for this stage id")
	stagesCmd.Flags().String("json", "", "write the timeline to a JSON file")
}

type snapshotExport struct {
	Stage      int    `json:"stage"`
	Name       string `json:"name,omitempty"`
	Materials  []int  `json:"materials"`
	Loads      []int  `json:"loads"`
	Boundaries []int  `json:"boundaries"`
}

func writeTimelineJSON(path string, tl *stage.Timeline) error {
	out := make([]snapshotExport, tl.Len())
	for i := 0; i < tl.Len(); i++ {
		s := tl.At(i)
		out[i] = snapshotExport{
			Stage:      s.Stage,
			Name:       s.Name,
			Materials:  s.Materials.Sorted(),
			Loads:      s.Loads.Sorted(),
			Boundaries: s.Boundaries.Sorted(),
		}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

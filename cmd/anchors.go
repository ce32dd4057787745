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
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	"github.com/xinfuwcx/DeepCAD-sub015/anchors"
	"github.com/xinfuwcx/DeepCAD-sub015/diag"
)

// anchorsCmd represents the anchors command
var anchorsCmd = &cobra.Command{
	Use:   "anchors <model.fpn>",
	Short: "Generate anchor-to-soil and anchor-to-wall interface constraints",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if prof, _ := cmd.Flags().GetBool("profile"); prof {
			defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
		}
		ap, err := loadParams(cmd)
		if err != nil {
			fail(err)
		}

		rep := diag.NewReport()
		mesh, _, _, err := buildModel(args[0], ap, rep)
		if err != nil {
			fail(err)
		}

		gen := anchors.NewGenerator(mesh, ap.AnchorConfig(), rep)
		for _, c := range gen.Chains() {
			fmt.Printf("anchor %d: %d segments, head node %d, prestress %.1f\n",
				c.ID, len(c.Elements), c.Head, c.Prestress)
		}

		timeout, _ := cmd.Flags().GetDuration("timeout")
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		cons, err := gen.Generate(ctx)
		if err != nil {
			fail(err)
		}

		counts := map[anchors.Category]int{}
		for _, c := range cons {
			counts[c.Category]++
		}
		fmt.Printf("%d constraints (%d %s, %d %s)\n", len(cons),
			counts[anchors.AnchorSoil], anchors.AnchorSoil,
			counts[anchors.AnchorWall], anchors.AnchorWall)
		fmt.Println(rep)

		if out, _ := cmd.Flags().GetString("out"); out != "" {
			if err := writeConstraintsJSON(out, cons); err != nil {
				fail(err)
			}
			fmt.Println("constraints written to", out)
		}
	},
}

func init() {
	rootCmd.AddCommand(anchorsCmd)
	anchorsCmd.Flags().StringP("out", "o", "", "write constraints to a JSON file")
	anchorsCmd.Flags().Duration("timeout", 5*time.Minute, "overall deadline for the constraint search")
	anchorsCmd.Flags().Bool("profile", false, "write a CPU profile for the run")
}

type constraintExport struct {
	Slave    int            `json:"slave"`
	Category string         `json:"category"`
	Masters  []masterExport `json:"masters"`
}

type masterExport struct {
	Node   int     `json:"node"`
	Weight float64 `json:"weight"`
}

func writeConstraintsJSON(path string, cons []anchors.Constraint) error {
	out := make([]constraintExport, len(cons))
	for i, c := range cons {
		ex := constraintExport{Slave: c.Slave, Category: c.Category.String()}
		for _, m := range c.Masters {
			ex.Masters = append(ex.Masters, masterExport{Node: m.Node, Weight: m.Weight})
		}
		out[i] = ex
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

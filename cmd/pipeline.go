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
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xinfuwcx/DeepCAD-sub015/assemble"
	"github.com/xinfuwcx/DeepCAD-sub015/diag"
	"github.com/xinfuwcx/DeepCAD-sub015/fpn"
	"github.com/xinfuwcx/DeepCAD-sub015/model"
	"github.com/xinfuwcx/DeepCAD-sub015/params"
)

func loadParams(cmd *cobra.Command) (*params.AnalysisParameters, error) {
	ap := params.NewAnalysisParameters()
	path, _ := cmd.Flags().GetString("params")
	if path == "" {
		return ap, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading parameters: %w", err)
	}
	if err := ap.Parse(data); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return ap, nil
}

// buildModel runs the reader and assembler as a two-stage pipeline:
// records stream over a channel into the assembler rather than being
// fully materialized, since large models carry tens of thousands of
// node lines.
func buildModel(path string, ap *params.AnalysisParameters, rep *diag.Report) (*model.Mesh, []model.StageDef, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, "", err
	}
	text, chosen, err := fpn.Decode(data, ap.Encodings, ap.MaxReplacementRatio)
	if err != nil {
		return nil, nil, "", err
	}

	recs := make(chan fpn.Record, 256)
	go func() {
		s := fpn.NewScanner(strings.NewReader(text), rep)
		for s.Scan() {
			recs <- s.Record()
		}
		close(recs)
	}()

	asm := assemble.New(assemble.Config{AutoOffset: ap.AutoOffset}, rep)
	for r := range recs {
		asm.Consume(r)
	}
	mesh, defs := asm.Finalize()
	return mesh, defs, chosen, nil
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

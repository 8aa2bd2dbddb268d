/*
Copyright 2021 The Datafuse Authors.

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

package datablock

import (
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// Format renders blocks as an aligned text table, the way the CLI and
// debug logs print results.
func Format(w io.Writer, blocks ...*DataBlock) error {
	if len(blocks) == 0 {
		return nil
	}
	schema := blocks[0].Schema()
	header := make([]any, 0, schema.Len())
	for _, f := range schema.Fields() {
		header = append(header, f.Name)
	}
	table := tablewriter.NewTable(w, tablewriter.WithHeaderAutoFormat(tw.Off))
	table.Header(header...)
	for _, block := range blocks {
		for row := 0; row < block.NumRows(); row++ {
			cells := make([]string, schema.Len())
			for col := 0; col < schema.Len(); col++ {
				cells[col] = block.Column(col).Get(row).String()
			}
			if err := table.Append(cells); err != nil {
				return err
			}
		}
	}
	return table.Render()
}

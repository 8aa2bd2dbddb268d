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

// Command datafuse runs a query over a generated numbers table and
// prints the result. It exists to exercise the full path: planning,
// subquery resolution, and the streaming pipeline.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jyizheng/datafuse/go/fuse/datablock"
	"github.com/jyizheng/datafuse/go/fuse/engine"
	"github.com/jyizheng/datafuse/go/fuse/expression"
	"github.com/jyizheng/datafuse/go/fuse/functions"
	"github.com/jyizheng/datafuse/go/fuse/log"
	"github.com/jyizheng/datafuse/go/fuse/planner"
	"github.com/jyizheng/datafuse/go/fuse/scheduler"
	"github.com/jyizheng/datafuse/go/fuse/sessions"
	"github.com/jyizheng/datafuse/go/sqltypes"
)

var (
	rows      int64
	threshold int64
	limit     int
)

func main() {
	defer log.Flush()

	v := viper.New()
	cmd := &cobra.Command{
		Use:   "datafuse",
		Short: "run a demo query over the numbers table",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), sessions.FromViper(v))
		},
	}
	cmd.Flags().Int64Var(&rows, "rows", 100, "rows in the generated numbers table")
	cmd.Flags().Int64Var(&threshold, "threshold", 50, "keep rows with number greater than this")
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum rows to print")
	sessions.RegisterFlags(cmd.Flags(), v)
	log.RegisterFlags(cmd.Flags())

	if err := cmd.Execute(); err != nil {
		log.Errorf("query failed: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, settings *sessions.Settings) error {
	qctx := sessions.NewQueryContext(settings)

	schema := sqltypes.NewSchema(sqltypes.Field{Name: "number", Type: sqltypes.Int64})
	scan := planner.NewScan("numbers", schema, numbersBlocks(schema, rows, settings.MaxBlockSize)...)

	// EXISTS over the same table, correlated on the threshold: true
	// whenever any row crosses it.
	exists := &expression.Exists{Plan: &planner.Filter{
		Input:     scan,
		Predicate: greaterThan(threshold),
	}}
	predicate := &expression.BinaryOp{
		Op:    "and",
		Left:  greaterThan(threshold),
		Right: exists,
	}

	projection, err := planner.NewProjection(
		&planner.Filter{Input: scan, Predicate: predicate},
		expression.DefaultResolver(),
		&expression.Column{Name: "number"},
		&expression.Alias{Name: "doubled", Inner: &expression.BinaryOp{
			Op:    "*",
			Left:  &expression.Column{Name: "number"},
			Right: &expression.Literal{Value: sqltypes.NewInt64(2)},
		}},
	)
	if err != nil {
		return err
	}
	plan := &planner.Select{Input: &planner.Limit{Input: projection, N: limit}}

	builder := engine.NewBuilder(expression.DefaultResolver(), engine.NewExecutorCache(), nil)
	interpreter := scheduler.NewSelectInterpreter(builder, nil, nil)

	start := time.Now()
	blocks, err := interpreter.Execute(ctx, qctx, plan)
	if err != nil {
		return err
	}
	if err := datablock.Format(os.Stdout, blocks...); err != nil {
		return err
	}
	fmt.Printf("%d rows in set (%.3f sec), processed %d rows\n",
		engine.TotalRows(blocks), time.Since(start).Seconds(), qctx.Progress().Rows())
	log.Infof("query %v finished on %v", qctx.ID(), functions.EngineVersion)
	return nil
}

func greaterThan(n int64) expression.Expr {
	return &expression.BinaryOp{
		Op:    ">",
		Left:  &expression.Column{Name: "number"},
		Right: &expression.Literal{Value: sqltypes.NewInt64(n)},
	}
}

// numbersBlocks generates [0, rows) split into max-block-size chunks.
func numbersBlocks(schema *sqltypes.Schema, rows int64, maxBlockSize int) []*datablock.DataBlock {
	if maxBlockSize <= 0 {
		maxBlockSize = 1
	}
	var blocks []*datablock.DataBlock
	for start := int64(0); start < rows; start += int64(maxBlockSize) {
		end := start + int64(maxBlockSize)
		if end > rows {
			end = rows
		}
		values := make([]sqltypes.Value, 0, end-start)
		for n := start; n < end; n++ {
			values = append(values, sqltypes.NewInt64(n))
		}
		block, err := datablock.New(schema, []sqltypes.Column{sqltypes.NewArray(sqltypes.Int64, values)})
		if err != nil {
			log.Fatalf("build numbers block: %v", err)
		}
		blocks = append(blocks, block)
	}
	return blocks
}

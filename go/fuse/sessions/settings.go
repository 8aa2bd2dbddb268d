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

// Package sessions carries per-query state: tunable settings and the
// runtime context a pipeline executes under.
package sessions

import (
	"runtime"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	keyMaxThreads        = "max-threads"
	keyMaxBlockSize      = "max-block-size"
	keyFlowClientTimeout = "flow-client-timeout"
)

// Settings are the per-query tunables. A Settings value is immutable
// once handed to a query context.
type Settings struct {
	// MaxThreads bounds within-level parallelism when resolving
	// subqueries and reading partitions.
	MaxThreads int
	// MaxBlockSize caps the rows in a single data block produced by
	// sources.
	MaxBlockSize int
	// FlowClientTimeout bounds each remote prepare call.
	FlowClientTimeout time.Duration
}

// DefaultSettings returns settings sized for the local machine.
func DefaultSettings() *Settings {
	return &Settings{
		MaxThreads:        runtime.NumCPU(),
		MaxBlockSize:      10000,
		FlowClientTimeout: 60 * time.Second,
	}
}

// RegisterFlags declares the settings flags on the given flag set and
// binds them into v, so config files and environment overrides flow
// through the same keys.
func RegisterFlags(fs *pflag.FlagSet, v *viper.Viper) {
	defaults := DefaultSettings()
	fs.Int(keyMaxThreads, defaults.MaxThreads, "maximum threads used to run a single query")
	fs.Int(keyMaxBlockSize, defaults.MaxBlockSize, "maximum rows in a single data block")
	fs.Duration(keyFlowClientTimeout, defaults.FlowClientTimeout, "timeout for each remote stage prepare call")

	_ = v.BindPFlag(keyMaxThreads, fs.Lookup(keyMaxThreads))
	_ = v.BindPFlag(keyMaxBlockSize, fs.Lookup(keyMaxBlockSize))
	_ = v.BindPFlag(keyFlowClientTimeout, fs.Lookup(keyFlowClientTimeout))
}

// FromViper materializes settings from bound configuration. Zero or
// negative values fall back to defaults.
func FromViper(v *viper.Viper) *Settings {
	s := DefaultSettings()
	if n := v.GetInt(keyMaxThreads); n > 0 {
		s.MaxThreads = n
	}
	if n := v.GetInt(keyMaxBlockSize); n > 0 {
		s.MaxBlockSize = n
	}
	if d := v.GetDuration(keyFlowClientTimeout); d > 0 {
		s.FlowClientTimeout = d
	}
	return s
}

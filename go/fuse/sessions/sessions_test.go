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

package sessions

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsFromViper(t *testing.T) {
	v := viper.New()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, v)

	require.NoError(t, fs.Parse([]string{"--max-threads=4", "--flow-client-timeout=5s"}))

	s := FromViper(v)
	assert.Equal(t, 4, s.MaxThreads)
	assert.Equal(t, 5*time.Second, s.FlowClientTimeout)
	assert.Equal(t, DefaultSettings().MaxBlockSize, s.MaxBlockSize)
}

func TestQueryContextIDs(t *testing.T) {
	a := NewQueryContext(nil)
	b := NewQueryContext(nil)
	assert.NotEmpty(t, a.ID())
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestPartitionStealing(t *testing.T) {
	qctx := NewQueryContext(nil)
	parts := make([]Partition, 5)
	for i := range parts {
		parts[i] = Partition{Name: fmt.Sprintf("p%d", i), Index: i}
	}
	qctx.TrySetPartitions(parts)
	assert.Equal(t, 5, qctx.RemainingPartitions())

	// Steals come from the back of the queue.
	got := qctx.TryGetPartitions(2)
	require.Len(t, got, 2)
	assert.Equal(t, "p3", got[0].Name)
	assert.Equal(t, "p4", got[1].Name)

	got = qctx.TryGetPartitions(10)
	require.Len(t, got, 3)
	assert.Nil(t, qctx.TryGetPartitions(1))
}

func TestPartitionStealingConcurrent(t *testing.T) {
	qctx := NewQueryContext(nil)
	parts := make([]Partition, 100)
	for i := range parts {
		parts[i] = Partition{Index: i}
	}
	qctx.TrySetPartitions(parts)

	var mu sync.Mutex
	seen := make(map[int]bool)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				stolen := qctx.TryGetPartitions(3)
				if stolen == nil {
					return
				}
				mu.Lock()
				for _, p := range stolen {
					assert.False(t, seen[p.Index], "partition %d stolen twice", p.Index)
					seen[p.Index] = true
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 100)
}

func TestContextFork(t *testing.T) {
	parent := NewQueryContext(nil)
	parent.TrySetPartitions([]Partition{{Index: 0}, {Index: 1}})

	child := parent.Fork()
	assert.Equal(t, parent.ID(), child.ID())
	assert.Equal(t, 0, child.RemainingPartitions())

	child.TrySetPartitions([]Partition{{Index: 9}})
	assert.Equal(t, 2, parent.RemainingPartitions())

	// Progress aggregates across forks.
	child.Progress().Add(5, 40)
	assert.Equal(t, uint64(5), parent.Progress().Rows())
}

func TestContextReset(t *testing.T) {
	qctx := NewQueryContext(nil)
	qctx.TrySetPartitions([]Partition{{Index: 0}})
	qctx.Reset()
	assert.Equal(t, 0, qctx.RemainingPartitions())
}

func TestProgress(t *testing.T) {
	var p Progress
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Add(10, 80)
		}()
	}
	wg.Wait()
	assert.Equal(t, uint64(100), p.Rows())
	assert.Equal(t, uint64(800), p.Bytes())
}

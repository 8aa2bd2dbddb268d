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

package flowclient

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawCodec(t *testing.T) {
	codec := rawCodec{}

	payload := []byte(`{"query_id":"q1"}`)
	out, err := codec.Marshal(payload)
	require.NoError(t, err)
	assert.Equal(t, payload, out)

	out, err = codec.Marshal(&payload)
	require.NoError(t, err)
	assert.Equal(t, payload, out)

	_, err = codec.Marshal("not bytes")
	require.Error(t, err)

	var reply []byte
	require.NoError(t, codec.Unmarshal(payload, &reply))
	assert.Equal(t, payload, reply)

	require.Error(t, codec.Unmarshal(payload, "not a pointer"))
}

// Fingerprints exceed float64 precision, so they must travel as JSON
// strings.
func TestPrepareRequestEncoding(t *testing.T) {
	req := &prepareRequest{
		QueryID:         "q1",
		StageID:         "s1",
		PlanFingerprint: 0xffffffffffffffff,
	}
	data, err := json.Marshal(req)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"plan_fingerprint":"18446744073709551615"`)

	var back prepareRequest
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, req.PlanFingerprint, back.PlanFingerprint)
}

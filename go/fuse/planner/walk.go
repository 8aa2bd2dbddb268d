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

package planner

import (
	"github.com/jyizheng/datafuse/go/fuse/expression"
)

// Walk visits the plan tree preorder. Returning descend=false skips the
// node's inputs; a non-nil error aborts the walk.
func Walk(p expression.Plan, visit func(expression.Plan) (bool, error)) error {
	descend, err := visit(p)
	if err != nil || !descend {
		return err
	}
	for _, in := range p.Inputs() {
		if err := Walk(in, visit); err != nil {
			return err
		}
	}
	return nil
}

// NearestFilter returns the first Filter found preorder in the plan, or
// nil when the plan has none. Correlated EXISTS discovery anchors on
// this node: its predicate is where subquery placeholders live.
func NearestFilter(p expression.Plan) *Filter {
	var found *Filter
	_ = Walk(p, func(node expression.Plan) (bool, error) {
		if found != nil {
			return false, nil
		}
		if f, ok := node.(*Filter); ok {
			found = f
			return false, nil
		}
		return true, nil
	})
	return found
}

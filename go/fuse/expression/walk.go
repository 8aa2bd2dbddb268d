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

package expression

// Walk visits the expression tree in preorder. If visit returns false
// the children of the current node are skipped.
func Walk(e Expr, visit func(Expr) bool) {
	if e == nil || !visit(e) {
		return
	}
	switch e := e.(type) {
	case *Alias:
		Walk(e.Inner, visit)
	case *UnaryOp:
		Walk(e.Inner, visit)
	case *BinaryOp:
		Walk(e.Left, visit)
		Walk(e.Right, visit)
	case *ScalarFunc:
		for _, arg := range e.Args {
			Walk(arg, visit)
		}
	case *AggregateFunc:
		for _, arg := range e.Args {
			Walk(arg, visit)
		}
	case *Sort:
		Walk(e.Inner, visit)
	case *Cast:
		Walk(e.Inner, visit)
	}
}

// FindExists returns every Exists expression reachable from the given
// expressions, in discovery order. It does not descend into subquery
// plans: nested levels are discovered by the scheduler walking those
// plans themselves.
func FindExists(exprs ...Expr) []*Exists {
	var found []*Exists
	for _, e := range exprs {
		Walk(e, func(node Expr) bool {
			if exists, ok := node.(*Exists); ok {
				found = append(found, exists)
			}
			return true
		})
	}
	return found
}

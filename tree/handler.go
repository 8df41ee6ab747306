// Copyright 2026 The Teleroute Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tree

// Handler identifies what a route dispatches to. It is one of [ClassMethod]
// or [Function]; resolving it into something callable is the dispatcher's job.
type Handler interface {
	isHandler()
}

// ClassMethod names a method on a class resolved by an external container.
type ClassMethod struct {
	Class  string
	Method string
}

// Function carries a callable directly. The tree never inspects Fn.
type Function struct {
	Fn any
}

func (ClassMethod) isHandler() {}
func (Function) isHandler()    {}

// Settings is the per-method configuration stored on a terminal node.
type Settings struct {
	Handler      Handler
	Interceptors []string
	FlatPath     string
	Extra        any
}

// Registration is the input to [Tree.Add].
type Registration struct {
	Pattern      string
	Methods      []Method
	Handler      Handler
	Interceptors []string
	Alias        string
	Extra        any
}

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

package errors

type testError struct{ message string }

func (e *testError) Error() string { return e.message }

type testErrorFull struct {
	message string
	code    string
	status  int
	details any
}

func (e *testErrorFull) Error() string   { return e.message }
func (e *testErrorFull) Code() string    { return e.code }
func (e *testErrorFull) HTTPStatus() int { return e.status }
func (e *testErrorFull) Details() any    { return e.details }

type testAllowError struct{ methods []string }

func (e *testAllowError) Error() string   { return "method not allowed" }
func (e *testAllowError) HTTPStatus() int { return 405 }
func (e *testAllowError) Allow() []string { return e.methods }

// Copyright 2026 The DataMate-Ops Authors
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

// Package builtin links every builtin operator into the importing binary.
// Importing it for side effects registers the operators with the registry:
//
//	import _ "github.com/JasonW404-HW/DataMate-Ops/operators/builtin"
package builtin

import (
	_ "github.com/JasonW404-HW/DataMate-Ops/operators/jqtransform"
	_ "github.com/JasonW404-HW/DataMate-Ops/operators/pathopre"
	_ "github.com/JasonW404-HW/DataMate-Ops/operators/rowfilter"
	_ "github.com/JasonW404-HW/DataMate-Ops/operators/scriptmap"
)

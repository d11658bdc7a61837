// Copyright 2020-2021 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package stats_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coldbrook-data/bqengine/sql/stats"
)

func TestEqualitySelectivity(t *testing.T) {
	require.Equal(t, 0.1, stats.EqualitySelectivity(0, 0))
	require.Equal(t, 0.25, stats.EqualitySelectivity(4, 0))
	require.Equal(t, 0.25, stats.EqualitySelectivity(0, 4))
	require.Equal(t, 0.1, stats.EqualitySelectivity(10, 20))
	require.Equal(t, 0.1, stats.EqualitySelectivity(20, 10))
}

func TestLikeSelectivity(t *testing.T) {
	require.Equal(t, 0.1, stats.LikeSelectivity("abc%", false))
	require.Equal(t, 0.5, stats.LikeSelectivity("%abc", false))
	require.Equal(t, 0.5, stats.LikeSelectivity("_bc", false))
	require.InDelta(t, 0.9, stats.LikeSelectivity("abc%", true), 1e-9)
	require.Equal(t, 0.5, stats.LikeSelectivity("%abc", true))
}

func TestInSelectivity(t *testing.T) {
	require.Equal(t, 0.2, stats.InSelectivity(2, false))
	require.Equal(t, 0.5, stats.InSelectivity(10, false))
	require.InDelta(t, 0.8, stats.InSelectivity(2, true), 1e-9)
	require.Equal(t, 0.5, stats.InSelectivity(10, true))
}

func TestNullSelectivity(t *testing.T) {
	require.Equal(t, 0.2, stats.NullSelectivity(0.2, true, false))
	require.InDelta(t, 0.8, stats.NullSelectivity(0.2, true, true), 1e-9)
	require.Equal(t, 0.01, stats.NullSelectivity(0.2, false, false))
	require.InDelta(t, 0.99, stats.NullSelectivity(0.2, false, true), 1e-9)
}

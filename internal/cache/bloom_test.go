// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rhythmdb

package cache

import (
	"fmt"
	"sync"
	"testing"
)

func TestBloomFilter_BasicOperations(t *testing.T) {
	bf := NewBloomFilter(1000, 0.01)

	// Test Add and Test
	bf.Add("hello")
	bf.Add("world")

	if !bf.Test("hello") {
		t.Error("Expected 'hello' to be found")
	}
	if !bf.Test("world") {
		t.Error("Expected 'world' to be found")
	}
}

func TestBloomFilter_NoFalseNegatives(t *testing.T) {
	bf := NewBloomFilter(10000, 0.01)

	// Add items
	items := make([]string, 1000)
	for i := 0; i < 1000; i++ {
		items[i] = fmt.Sprintf("item-%d", i)
		bf.Add(items[i])
	}

	// All items should be found (no false negatives)
	for _, item := range items {
		if !bf.Test(item) {
			t.Errorf("False negative for item: %s", item)
		}
	}
}

func TestBloomFilter_FalsePositiveRate(t *testing.T) {
	bf := NewBloomFilter(1000, 0.01)

	// Add 1000 items
	for i := 0; i < 1000; i++ {
		bf.Add(fmt.Sprintf("item-%d", i))
	}

	// Test 10000 items that were NOT added
	falsePositives := 0
	for i := 1000; i < 11000; i++ {
		if bf.Test(fmt.Sprintf("item-%d", i)) {
			falsePositives++
		}
	}

	// False positive rate should be around 1% (allow 5% margin)
	fpRate := float64(falsePositives) / 10000.0
	if fpRate > 0.05 {
		t.Errorf("False positive rate too high: %.2f%% (expected ~1%%)", fpRate*100)
	}
}

func TestBloomFilter_AddAndTest(t *testing.T) {
	bf := NewBloomFilter(1000, 0.01)

	// First time should return false (not present)
	if bf.AddAndTest("key1") {
		t.Error("First AddAndTest should return false")
	}

	// Second time should return true (was present)
	if !bf.AddAndTest("key1") {
		t.Error("Second AddAndTest should return true")
	}

	// Different key should return false
	if bf.AddAndTest("key2") {
		t.Error("New key AddAndTest should return false")
	}
}

func TestBloomFilter_Clear(t *testing.T) {
	bf := NewBloomFilter(1000, 0.01)

	bf.Add("test")
	if !bf.Test("test") {
		t.Error("Expected 'test' to be found before Clear")
	}

	bf.Clear()

	// After clear, shouldn't find anything (ideally)
	// Note: This is probabilistic, might have false positives
	// But for a cleared filter, should mostly return false
	if bf.Test("test") {
		// This could be a false positive from a cleared filter
		// which should be extremely rare
		t.Log("Warning: false positive after Clear (rare but possible)")
	}

	if bf.Count() != 0 {
		t.Errorf("Expected count 0 after Clear, got %d", bf.Count())
	}
}

func TestBloomFilter_FillRatio(t *testing.T) {
	bf := NewBloomFilter(1000, 0.01)

	initialFill := bf.ApproximateFillRatio()
	if initialFill != 0 {
		t.Errorf("Expected 0 fill ratio initially, got %f", initialFill)
	}

	// Add some items
	for i := 0; i < 500; i++ {
		bf.Add(fmt.Sprintf("item-%d", i))
	}

	fillRatio := bf.ApproximateFillRatio()
	if fillRatio <= 0 || fillRatio > 1 {
		t.Errorf("Fill ratio should be between 0 and 1, got %f", fillRatio)
	}
}

func TestBloomFilter_Concurrent(t *testing.T) {
	bf := NewBloomFilter(10000, 0.01)

	var wg sync.WaitGroup
	numGoroutines := 100
	numOperations := 100

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < numOperations; j++ {
				key := fmt.Sprintf("key-%d-%d", id, j)
				bf.Add(key)
				bf.Test(key)
			}
		}(i)
	}

	wg.Wait()

	// Filter should still be functional
	bf.Add("final-test")
	if !bf.Test("final-test") {
		t.Error("Filter should still work after concurrent access")
	}
}

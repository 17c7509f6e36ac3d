// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package conformance

import (
	"errors"
	"testing"

	"github.com/Query-farm/strictpack/strictpack"
)

func TestConformance(t *testing.T) {
	reg := strictpack.NewRegistry()
	for _, c := range Cases() {
		t.Run(c.Name, func(t *testing.T) {
			if res := RunCase(reg, c); res.Err != nil {
				t.Fatal(res.Err)
			}
		})
	}
}

func TestCaseNamesUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, c := range Cases() {
		if seen[c.Name] {
			t.Errorf("duplicate case %q", c.Name)
		}
		seen[c.Name] = true
	}
}

func TestRunReportsFailures(t *testing.T) {
	// With unexpected fields ignored, the strict rejection case must fail.
	cfg := strictpack.DefaultConfig()
	cfg.UnexpectedFields = strictpack.UnexpectedFieldIgnore
	reg := strictpack.NewRegistryWithConfig(cfg)
	var failed []string
	for _, res := range Run(reg) {
		if res.Err != nil {
			failed = append(failed, res.Name)
		}
	}
	if len(failed) != 1 || failed[0] != "reject_unexpected_field" {
		t.Fatalf("failed cases = %v", failed)
	}
}

func TestRunCaseRecoversPanic(t *testing.T) {
	res := RunCase(strictpack.NewRegistry(), Case{Name: "boom", Run: func(*strictpack.Registry) error {
		panic(errors.New("boom"))
	}})
	if res.Err == nil {
		t.Fatal("panic not reported")
	}
}

// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/ipc"

	"github.com/Query-farm/strictpack/conformance"
	"github.com/Query-farm/strictpack/strictpack"
)

func main() {
	describe := flag.Bool("describe", false, "write the registry description as an Arrow IPC stream to stdout after running")
	ignoreUnexpected := flag.Bool("ignore-unexpected", false, "skip undeclared record fields instead of failing")
	only := flag.String("run", "", "run only cases whose name contains this string")
	verbose := flag.Bool("v", false, "log every case and codec compilation")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg := strictpack.DefaultConfig()
	cfg.Logger = logger
	if *ignoreUnexpected {
		cfg.UnexpectedFields = strictpack.UnexpectedFieldIgnore
	}
	reg := strictpack.NewRegistryWithConfig(cfg)

	failed := 0
	ran := 0
	for _, c := range conformance.Cases() {
		if *only != "" && !strings.Contains(c.Name, *only) {
			continue
		}
		ran++
		res := conformance.RunCase(reg, c)
		if res.Err != nil {
			failed++
			logger.Error("FAIL", "case", res.Name, "err", res.Err)
			continue
		}
		logger.Debug("PASS", "case", res.Name)
	}
	logger.Info("conformance finished", "ran", ran, "failed", failed, "codecs", reg.Len())

	if *describe {
		if err := writeDescribe(reg); err != nil {
			fmt.Fprintf(os.Stderr, "describe: %v\n", err)
			os.Exit(1)
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func writeDescribe(reg *strictpack.Registry) error {
	rec, err := reg.Describe()
	if err != nil {
		return err
	}
	defer rec.Release()
	w := ipc.NewWriter(os.Stdout, ipc.WithSchema(rec.Schema()))
	if err := w.Write(rec); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

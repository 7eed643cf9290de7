// Copyright (C) 2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"os"

	"git.lukeshu.com/go/lowmemjson"
	"github.com/datawire/dlib/dlog"
	"github.com/datawire/ocibuild/pkg/cliutil"
	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"git.lukeshu.com/nandsim/lib/ftl"
	"git.lukeshu.com/nandsim/lib/nand"
	"git.lukeshu.com/nandsim/lib/textui"
	"git.lukeshu.com/nandsim/lib/workload"
)

type runReport struct {
	Workload workload.Results
	Device   deviceReport
}

type deviceReport struct {
	AccessCnt  uint64
	CMTHitCnt  uint64
	CMTMissCnt uint64
	HitRatio   float64

	FreeLines   int
	FullLines   int
	VictimLines int
	CMTUsed     int

	Wear nand.WearStats
}

func init() {
	cfg := workload.DefaultConfig()
	var jsonFlag bool
	var spewFlag bool

	cmd := subcommand{
		Command: cobra.Command{
			Use:   "run",
			Short: "Drive a simulated device with a synthetic workload",
			Long: "" +
				"A set of pollers submit reads, writes, and trims through the\n" +
				"submission rings, and the aggregated completion latencies and\n" +
				"device counters are reported at the end of the run.",
			Args: cliutil.WrapPositionalArgs(cobra.NoArgs),
		},
	}
	flags := cmd.Command.Flags()
	flags.IntVar(&cfg.NumOps, "ops", cfg.NumOps, "total number of requests to submit")
	flags.IntVar(&cfg.Pollers, "pollers", cfg.Pollers, "number of submission/completion ring pairs")
	flags.IntVar(&cfg.Depth, "depth", cfg.Depth, "ring size and per-poller in-flight cap")
	flags.IntVar(&cfg.ReadPct, "read-pct", cfg.ReadPct, "percent of requests that are reads")
	flags.IntVar(&cfg.DSMPct, "dsm-pct", cfg.DSMPct, "percent of requests that are trims")
	flags.BoolVar(&cfg.Seq, "seq", cfg.Seq, "address sequentially instead of uniformly at random")
	flags.IntVar(&cfg.SpanPgs, "span-pgs", cfg.SpanPgs, "logical pages to address (0 means the whole device)")
	flags.IntVar(&cfg.ReqSecs, "req-secs", cfg.ReqSecs, "sectors per request")
	flags.Int64Var(&cfg.Seed, "seed", cfg.Seed, "seed for the workload generator")
	flags.IntVar(&cfg.HostCachePgs, "host-cache-pgs", cfg.HostCachePgs, "host page cache capacity, in pages (0 disables it)")
	flags.BoolVar(&jsonFlag, "json", false, "print the report as JSON on stdout")
	flags.BoolVar(&spewFlag, "spew-state", false, "dump the report with go-spew on stdout")

	cmd.RunE = func(params *nand.Params, cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		dlog.Infof(ctx, "nandsim: building a %v device (%v channels, %v LUNs, %v lines)",
			textui.IEC(int64(params.TotalSecs)*int64(params.SecSize), "B"),
			params.Chs, params.TotalLUNs, params.TotalLines)
		ssd := ftl.New(*params)

		results, err := workload.Run(ctx, ssd, cfg)
		if err != nil {
			return err
		}

		report := runReport{
			Workload: results,
			Device: deviceReport{
				AccessCnt:  ssd.Statistics.AccessCnt,
				CMTHitCnt:  ssd.Statistics.CMTHitCnt,
				CMTMissCnt: ssd.Statistics.CMTMissCnt,
				HitRatio:   ssd.Statistics.HitRatio(),

				FreeLines:   ssd.FreeLineCount(),
				FullLines:   ssd.FullLineCount(),
				VictimLines: ssd.VictimLineCount(),
				CMTUsed:     ssd.CMTUsedCount(),

				Wear: ssd.Array.Wear(),
			},
		}

		dlog.Infof(ctx, "nandsim: %v", results)
		dlog.Infof(ctx, "nandsim: cmt: hits %v",
			textui.Portion[uint64]{N: report.Device.CMTHitCnt, D: report.Device.AccessCnt})
		dlog.Infof(ctx, "nandsim: lines: free=%v full=%v victim=%v",
			report.Device.FreeLines, report.Device.FullLines, report.Device.VictimLines)
		dlog.Infof(ctx, "nandsim: wear: min=%v max=%v mean=%.2f erases/block",
			report.Device.Wear.MinEraseCnt, report.Device.Wear.MaxEraseCnt,
			report.Device.Wear.MeanEraseCnt(params))

		if jsonFlag {
			if err := writeJSONFile(os.Stdout, report, lowmemjson.ReEncoderConfig{
				Indent:                "\t",
				ForceTrailingNewlines: true,
			}); err != nil {
				return err
			}
		}
		if spewFlag {
			spew := spew.NewDefaultConfig()
			spew.DisablePointerAddresses = true
			spew.Dump(report)
		}
		return nil
	}
	subcommands = append(subcommands, cmd)
}

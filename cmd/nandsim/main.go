// Copyright (C) 2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"context"
	"os"

	"github.com/datawire/dlib/dgroup"
	"github.com/datawire/dlib/dlog"
	"github.com/datawire/ocibuild/pkg/cliutil"
	"github.com/spf13/cobra"

	"git.lukeshu.com/nandsim/lib/nand"
	"git.lukeshu.com/nandsim/lib/profile"
	"git.lukeshu.com/nandsim/lib/textui"
)

type subcommand struct {
	cobra.Command
	RunE func(*nand.Params, *cobra.Command, []string) error
}

var subcommands []subcommand

func main() {
	logLevelFlag := textui.LogLevelFlag{
		Level: dlog.LogLevelInfo,
	}
	params := nand.DefaultParams()

	argparser := &cobra.Command{
		Use:   "nandsim {[flags]|SUBCOMMAND}",
		Short: "Simulate a NAND flash device behind a demand-paged FTL",

		Args: cliutil.WrapPositionalArgs(cliutil.OnlySubcommands),
		RunE: cliutil.RunSubcommands,

		SilenceErrors: true, // main() will handle this after .ExecuteContext() returns
		SilenceUsage:  true, // our FlagErrorFunc will handle it

		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	argparser.SetFlagErrorFunc(cliutil.FlagErrorFunc)
	argparser.SetHelpTemplate(cliutil.HelpTemplate)
	argparser.PersistentFlags().Var(&logLevelFlag, "verbosity", "set the verbosity")

	argparser.PersistentFlags().IntVar(&params.SecSize, "sec-size", params.SecSize, "bytes per sector")
	argparser.PersistentFlags().IntVar(&params.SecsPerPg, "secs-per-pg", params.SecsPerPg, "sectors per page")
	argparser.PersistentFlags().IntVar(&params.PgsPerBlk, "pgs-per-blk", params.PgsPerBlk, "pages per block")
	argparser.PersistentFlags().IntVar(&params.BlksPerPl, "blks-per-pl", params.BlksPerPl, "blocks per plane")
	argparser.PersistentFlags().IntVar(&params.PlsPerLUN, "pls-per-lun", params.PlsPerLUN, "planes per LUN")
	argparser.PersistentFlags().IntVar(&params.LUNsPerCh, "luns-per-ch", params.LUNsPerCh, "LUNs per channel")
	argparser.PersistentFlags().IntVar(&params.Chs, "chs", params.Chs, "channels")

	argparser.PersistentFlags().Int64Var(&params.PgRdLat, "pg-rd-lat", params.PgRdLat, "page read latency, in nanoseconds")
	argparser.PersistentFlags().Int64Var(&params.PgWrLat, "pg-wr-lat", params.PgWrLat, "page program latency, in nanoseconds")
	argparser.PersistentFlags().Int64Var(&params.BlkErLat, "blk-er-lat", params.BlkErLat, "block erase latency, in nanoseconds")
	argparser.PersistentFlags().Int64Var(&params.ChXferLat, "ch-xfer-lat", params.ChXferLat, "channel transfer latency, in nanoseconds (0 disables channel serialization)")

	argparser.PersistentFlags().Float64Var(&params.GCThresPcent, "gc-thres-pcent", params.GCThresPcent, "utilization at which background garbage collection starts")
	argparser.PersistentFlags().Float64Var(&params.GCThresPcentHigh, "gc-thres-pcent-high", params.GCThresPcentHigh, "utilization at which writes force garbage collection")
	argparser.PersistentFlags().BoolVar(&params.EnableGCDelay, "gc-delay", params.EnableGCDelay, "account for garbage-collection I/O in the timing model")
	argparser.PersistentFlags().IntVar(&params.EntsPerPg, "ents-per-pg", params.EntsPerPg, "mapping entries per translation page")

	stopProfiling := profile.AddProfileFlags(argparser.PersistentFlags(), "profile.")

	for i := range subcommands {
		child := &subcommands[i]
		cmd := child.Command
		runE := child.RunE
		cmd.RunE = func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := textui.NewLogger(os.Stderr, logLevelFlag.Level)
			ctx = dlog.WithLogger(ctx, logger)
			ctx = dlog.WithField(ctx, "mem", new(textui.LiveMemUse))
			dlog.SetFallbackLogger(logger.WithField("nandsim.THIS_IS_A_BUG", true))

			grp := dgroup.NewGroup(ctx, dgroup.GroupConfig{
				EnableSignalHandling: true,
			})
			grp.Go("main", func(ctx context.Context) (err error) {
				maybeSetErr := func(_err error) {
					if _err != nil && err == nil {
						err = _err
					}
				}
				defer func() {
					maybeSetErr(stopProfiling())
				}()
				params.Derive()
				cmd.SetContext(ctx)
				return runE(&params, cmd, args)
			})
			return grp.Wait()
		}
		argparser.AddCommand(&cmd)
	}

	if err := argparser.ExecuteContext(context.Background()); err != nil {
		textui.Fprintf(os.Stderr, "%v: error: %v\n", argparser.CommandPath(), err)
		os.Exit(1)
	}
}

// Copyright (C) 2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"os"

	"git.lukeshu.com/go/lowmemjson"
	"github.com/datawire/ocibuild/pkg/cliutil"
	"github.com/spf13/cobra"

	"git.lukeshu.com/nandsim/lib/nand"
	"git.lukeshu.com/nandsim/lib/textui"
)

func init() {
	var jsonFlag bool

	cmd := subcommand{
		Command: cobra.Command{
			Use:   "geometry",
			Short: "Print the derived device geometry and tuning",
			Args:  cliutil.WrapPositionalArgs(cobra.NoArgs),
		},
	}
	cmd.Command.Flags().BoolVar(&jsonFlag, "json", false, "print the geometry as JSON on stdout")

	cmd.RunE = func(params *nand.Params, _ *cobra.Command, _ []string) error {
		if jsonFlag {
			return writeJSONFile(os.Stdout, params, lowmemjson.ReEncoderConfig{
				Indent:                "\t",
				ForceTrailingNewlines: true,
			})
		}

		textui.Fprintf(os.Stdout, "capacity      : %v (%v sectors of %v)\n",
			textui.IEC(int64(params.TotalSecs)*int64(params.SecSize), "B"),
			params.TotalSecs, textui.IEC(params.SecSize, "B"))
		textui.Fprintf(os.Stdout, "geometry      : %v chs × %v luns × %v pls × %v blks × %v pgs × %v secs\n",
			params.Chs, params.LUNsPerCh, params.PlsPerLUN, params.BlksPerPl, params.PgsPerBlk, params.SecsPerPg)
		textui.Fprintf(os.Stdout, "lines         : %v lines of %v blocks (%v pages) each\n",
			params.TotalLines, params.BlksPerLine, params.PgsPerLine)
		xfer := "disabled"
		if params.ChXferLat > 0 {
			xfer = textui.Metric(float64(params.ChXferLat)/1e9, "s").String()
		}
		textui.Fprintf(os.Stdout, "latencies     : read=%v program=%v erase=%v xfer=%v\n",
			textui.Metric(float64(params.PgRdLat)/1e9, "s"),
			textui.Metric(float64(params.PgWrLat)/1e9, "s"),
			textui.Metric(float64(params.BlkErLat)/1e9, "s"),
			xfer)
		textui.Fprintf(os.Stdout, "gc thresholds : background at %v free lines, forced at %v\n",
			params.GCThresLines, params.GCThresLinesHigh)
		textui.Fprintf(os.Stdout, "mapping       : %v translation pages (%v entries each), cmt holds %v entries\n",
			params.GTDSize, params.EntsPerPg, params.CMTSize)
		return nil
	}
	subcommands = append(subcommands, cmd)
}

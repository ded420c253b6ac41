package main

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/mdobak/go-xerrors"

	"github.com/tayl0r/workout-choreo-creator/config"
	"github.com/tayl0r/workout-choreo-creator/detector"
	"github.com/tayl0r/workout-choreo-creator/utils"
)

const usage = "Usage: beatdetect <filepath>"

var (
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed)
)

// run returns the process exit code. Only the JSON result goes to stdout.
func run(args []string, stdout, stderr io.Writer) int {
	if len(args) != 1 {
		yellow.Fprintln(stderr, usage)
		return 1
	}
	path := args[0]

	res, err := detector.New(config.Default()).Detect(context.Background(), path)
	if err != nil {
		red.Fprintf(stderr, "beatdetect: %s\n", path)
		fmt.Fprint(stderr, xerrors.Sprint(err))
		return 1
	}

	line, err := res.MarshalJSON()
	if err != nil {
		utils.Log.Error("encode result: %v", err)
		return 1
	}
	fmt.Fprintf(stdout, "%s\n", line)
	return 0
}

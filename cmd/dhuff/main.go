package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/jeromelesaux/dhuff"
)

const (
	cmdUnknown = iota
	cmdCompress
	cmdExtract
	cmdList
	cmdTest
)

var (
	version            = flag.Bool("version", false, "print version of application ")
	listfile           = flag.Bool("l", false, "List header of archive ")
	extractfile        = flag.Bool("e", false, "EXtract from archive ")
	createfile         = flag.String("c", "", "Compress file into new archive ")
	testcrcfile        = flag.Bool("t", false, "Test file CRC in archive ")
	verbosemodeoption  = flag.Bool("v", false, "verbose ")
	quietoption        = flag.Bool("q", false, "quiet, no indicator ")
	forceoption        = flag.Bool("f", false, "force (over write at extract) ")
	printstdoutarchive = flag.Bool("p", false, "Print to STDOUT from archive ")
	extractdirectory   = flag.String("w", "", "w=<dir> specify extract directory (x/e) ")
	archiveNameOption  = flag.String("archive", "", "archive file path ")

	cmd = cmdUnknown
)

func main() {
	flag.Parse()

	if *version || *archiveNameOption == "" {
		printVersion()
		return
	}

	level := "INFO"
	if *verbosemodeoption {
		level = "DEBUG"
	}
	logger.New(level)
	log := logger.Sugar.WithServiceName("dhuff")

	parseOption()

	a := &archiver{
		name:   *archiveNameOption,
		dir:    *extractdirectory,
		log:    log,
		force:  *forceoption,
		stdout: *printstdoutarchive,
		ind:    indicator{quiet: *quietoption || *printstdoutarchive},
	}

	var err error
	switch cmd {
	case cmdCompress:
		err = a.compress(*createfile)
	case cmdExtract:
		err = a.extract()
	case cmdTest:
		err = a.test()
	case cmdList:
		err = a.list()
	default:
		fmt.Fprintf(os.Stderr, "option unknown.\n")
		printVersion()
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Execution error :%v\n", err.Error())
		logger.OnExit()
		os.Exit(1)
	}
	logger.OnExit()
}

// parseOption picks the command, the first one set wins.
func parseOption() {
	switch {
	case *createfile != "":
		cmd = cmdCompress
	case *listfile:
		cmd = cmdList
	case *testcrcfile:
		cmd = cmdTest
	case *extractfile, *printstdoutarchive:
		cmd = cmdExtract
	}
}

func printVersion() {
	flag.PrintDefaults()
	fmt.Fprintf(os.Stdout, "%s version %s (method %s)\n", dhuff.PackageName, dhuff.PackageVersion, dhuff.MethodID)
}

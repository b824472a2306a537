package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aihangout/hangoutsync/internal/modeflags"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("hangoutsync-freetier", flag.ContinueOnError)
	fs.SetOutput(stderr)
	file := fs.String("file", envOrDefault("AIHANGOUT_FLAGS_FILE", modeflags.DefaultFile), "flags file to write")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	flags := modeflags.FreeTier()
	if err := modeflags.Write(*file, modeflags.FreeTierHeader, flags); err != nil {
		fmt.Fprintf(stderr, "failed to write %s: %v\n", *file, err)
		return 1
	}
	fmt.Fprintf(stdout, "free tier mode enabled (%s)\n", *file)
	fmt.Fprintln(stdout, "ai analysis: disabled")
	fmt.Fprintf(stdout, "full backup frequency: %s\n", flags[modeflags.KeyBackupFrequency])
	fmt.Fprintf(stdout, "table sync frequency: %s\n", flags[modeflags.KeySyncFrequency])
	fmt.Fprintf(stdout, "snapshot objects capped at %s\n", flags[modeflags.KeyMaxS3Objects])
	return 0
}

func envOrDefault(name, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

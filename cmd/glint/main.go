package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"glint/internal/glspserver"
)

// Version is set during the build process using ldflags.
var Version = "(dev) v0.0.0"

func main() {
	versionFlag := flag.Bool("version", false, "print the version of the program")
	logfileFlag := flag.String("logfile", "", "path to log file (stderr if empty)")
	rootFlag := flag.String("root", "", "workspace root URI, when not supplied by the client's initialize request")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("glint LSP server version %s\n", Version)
		return
	}

	if *logfileFlag != "" {
		logFile, err := os.OpenFile(*logfileFlag, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			log.Fatalf("failed to open log file: %v", err)
		}
		defer logFile.Close()
		commonlog.Configure(1, logfileFlag)
	} else {
		commonlog.Configure(1, nil)
	}

	s := glspserver.New()
	s.SetDefaultRoot(*rootFlag)
	if err := s.Run(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

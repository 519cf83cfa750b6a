package main

import (
	"log"
	"os"

	"github.com/trezcool/nudge/core"
	logsvc "github.com/trezcool/nudge/services/logger"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	cli := commandLine{conf: conf, logger: logger, out: os.Stdout}
	err := cli.run(os.Args)
	if cerr := cli.close(); cerr != nil {
		logger.Error("closing database", cerr)
	}
	logger.Close()
	if err != nil {
		log.Printf("error: %s\n", err)
		os.Exit(1)
	}
}

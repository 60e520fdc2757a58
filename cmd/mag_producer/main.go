// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/mag_computer/internal/app"
)

func main() {
	configPath := flag.String("config", "mag_config.txt", "Path to configuration file")
	flag.Parse()

	if err := app.RunMagProducer(*configPath); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

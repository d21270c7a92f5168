// Copyright (c) 2026 The AnchorNet developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	cli "gopkg.in/urfave/cli.v1"
)

var (
	dataDirFlag = cli.StringFlag{
		Name:  "data-dir",
		Value: defaultDataDir(),
		Usage: "directory for the anchor database",
	}
	ephemeralFlag = cli.BoolFlag{
		Name:  "ephemeral",
		Usage: "keep all state in memory, discarded on exit",
	}
	apiAddrFlag = cli.StringFlag{
		Name:  "api-addr",
		Value: "localhost:8640",
		Usage: "API service listening address",
	}
	apiCORSFlag = cli.StringFlag{
		Name:  "api-cors",
		Usage: "comma-separated list of allowed CORS origins",
	}
	metricsAddrFlag = cli.StringFlag{
		Name:  "metrics-addr",
		Usage: "metrics service listening address (disabled when empty)",
	}
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Value: 2,
		Usage: "log verbosity (0-9)",
	}
	settingsFlag = cli.StringFlag{
		Name:  "settings",
		Usage: "path to a YAML protocol settings file overriding the defaults",
	}
)

// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/gpp/internal/dispatcher"
	"github.com/kraklabs/gpp/internal/errs"
	"github.com/kraklabs/gpp/internal/ui"
)

func runLog(args []string, workdir, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("log", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		errs.FatalError(errs.NewInputError("Cannot parse log flags", err.Error(), "", err), globals.JSON)
	}

	if err := requireRepo(workdir); err != nil {
		errs.FatalError(err, globals.JSON)
	}

	a, err := loadApp(workdir, configPath)
	if err != nil {
		errs.FatalError(err, globals.JSON)
	}

	res, err := a.dispatcher.Dispatch(context.Background(), dispatcher.Command{Kind: dispatcher.CmdLog})
	if err != nil {
		errs.FatalError(err, globals.JSON)
	}

	ui.Plain("%s", res.Message)
}

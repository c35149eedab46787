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
	"encoding/json"
	"fmt"

	flag "github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/kraklabs/gpp/internal/errs"
)

// runConfigCmd implements the supplemented read-only "config" command:
// print the effective, env-override-applied configuration.
func runConfigCmd(args []string, workdir, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		errs.FatalError(errs.NewInputError("Cannot parse config flags", err.Error(), "", err), globals.JSON)
	}

	if err := requireRepo(workdir); err != nil {
		errs.FatalError(err, globals.JSON)
	}

	a, err := loadApp(workdir, configPath)
	if err != nil {
		errs.FatalError(err, globals.JSON)
	}

	if globals.JSON {
		enc, _ := json.MarshalIndent(a.cfg, "", "  ")
		fmt.Println(string(enc))
		return
	}

	enc, err := yaml.Marshal(a.cfg)
	if err != nil {
		errs.FatalError(errs.NewSerdeError("Cannot render config", err.Error(), "", err), globals.JSON)
	}
	fmt.Print(string(enc))
}

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
	"os"
	"os/user"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/gpp/internal/dispatcher"
	"github.com/kraklabs/gpp/internal/errs"
	"github.com/kraklabs/gpp/internal/types"
	"github.com/kraklabs/gpp/internal/ui"
)

func runAdd(args []string, workdir, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	message := fs.StringP("message", "m", "", "Commit message (required)")
	if err := fs.Parse(args); err != nil {
		errs.FatalError(errs.NewInputError("Cannot parse add flags", err.Error(), "", err), globals.JSON)
	}
	if *message == "" {
		errs.FatalError(errs.NewInputError("Message required", "The -m/--message flag is required", "gpp add -m \"your message\"", nil), globals.JSON)
	}

	if err := requireRepo(workdir); err != nil {
		errs.FatalError(err, globals.JSON)
	}

	a, err := loadApp(workdir, configPath)
	if err != nil {
		errs.FatalError(err, globals.JSON)
	}

	var parents []types.NodeId
	head, err := a.readHead()
	if err != nil {
		errs.FatalError(err, globals.JSON)
	}
	if head != "" {
		parents = []types.NodeId{types.NodeId(head)}
	}

	res, err := a.dispatcher.Dispatch(context.Background(), dispatcher.Command{
		Kind:    dispatcher.CmdAdd,
		Message: *message,
		Author:  currentAuthor(),
		Parents: parents,
	})
	if err != nil {
		errs.FatalError(err, globals.JSON)
	}

	newID := extractNodeID(res.Message)
	if newID != "" {
		if err := a.writeHead(newID); err != nil {
			errs.FatalError(err, globals.JSON)
		}
	}

	ui.Success("%s", res.Message)
}

// currentAuthor resolves an Author from the environment, falling back to
// a generic identity when no better source is available.
func currentAuthor() types.Author {
	name := os.Getenv("GPP_AUTHOR_NAME")
	email := os.Getenv("GPP_AUTHOR_EMAIL")
	if name == "" {
		if u, err := user.Current(); err == nil && u.Username != "" {
			name = u.Username
		} else {
			name = "unknown"
		}
	}
	if email == "" {
		email = name + "@localhost"
	}
	return types.Author{Name: name, Email: email}
}

// extractNodeID pulls the node id out of "Node created: <id>".
func extractNodeID(message string) string {
	const prefix = "Node created: "
	if len(message) > len(prefix) && message[:len(prefix)] == prefix {
		return message[len(prefix):]
	}
	return ""
}

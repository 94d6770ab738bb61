// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/depgraph/services/depgraph/lang"
)

type languageInfo struct {
	Language   string   `json:"language"`
	Extensions []string `json:"extensions"`
}

func newLanguagesCmd(c *cli) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "languages",
		Short: "List supported languages and their file extensions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			profiles := lang.Default().Profiles()
			infos := make([]languageInfo, 0, len(profiles))
			for _, p := range profiles {
				infos = append(infos, languageInfo{Language: p.Language, Extensions: p.Extensions})
			}

			if jsonOutput {
				enc := json.NewEncoder(c.stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(infos); err != nil {
					return fail(err)
				}
				return nil
			}

			c.printer.Title("Supported languages")
			pairs := make([]string, 0, 2*len(infos))
			for _, info := range infos {
				pairs = append(pairs, info.Language, strings.Join(info.Extensions, " "))
			}
			c.printer.KeyValues(pairs...)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ivoronin/sparkql/internal/version"
)

var versionJSON bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version and newest grammar version",
	Args:  cobra.NoArgs,
	RunE:  runVersion,
}

func init() {
	versionCmd.Flags().BoolVarP(&versionJSON, "json", "j", false, "Output in JSON format")
}

func runVersion(cmd *cobra.Command, args []string) error {
	if versionJSON {
		info := struct {
			Version string `json:"version"`
			Grammar string `json:"grammar"`
		}{
			Version: Version,
			Grammar: version.Latest,
		}
		out, err := json.Marshal(info)
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	} else {
		fmt.Printf("sparkql %s (grammar %s)\n", Version, version.Latest)
	}
	return nil
}
